package wsapi

import (
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/iyulab/shell-tunnel/internal/broker"
	"github.com/iyulab/shell-tunnel/internal/logging"
	"github.com/iyulab/shell-tunnel/internal/metrics"
	"github.com/iyulab/shell-tunnel/internal/session"
	"github.com/iyulab/shell-tunnel/internal/store"
)

// writeWait bounds how long a single WebSocket write may take.
const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// signalBytes maps the symbolic signal names clients may request to the
// control byte the PTY expects (spec §6's "signal" client frame).
var signalBytes = map[string]byte{
	"SIGINT":  0x03,
	"SIGQUIT": 0x1c,
	"SIGTSTP": 0x1a,
	"EOF":     0x04,
}

// API is the WebSocket collaborator named in spec §6: it bridges the
// Streaming Broker's Subscription/SendInput surface to JSON-framed
// WebSocket messages.
type API struct {
	store   *store.Store
	metrics *metrics.Metrics
	log     *logging.Logger
}

// New creates a WebSocket API bound to a Store. metrics may be nil.
func New(s *store.Store, m *metrics.Metrics, log *logging.Logger) *API {
	if log == nil {
		log = logging.NewDefault()
	}
	return &API{store: s, metrics: m, log: log}
}

// Register attaches both WebSocket routes to r.
func (a *API) Register(r gin.IRouter) {
	v1 := r.Group("/api/v1")
	v1.GET("/sessions/:id/ws", a.attach)
	v1.GET("/ws", a.oneShot)
}

func (a *API) attach(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	sess, err := a.store.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	a.bridge(conn, sess, c.Query("raw") == "true")
}

func (a *API) oneShot(c *gin.Context) {
	id, err := a.store.Create(store.CreateOptions{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	sess, err := a.store.Get(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.store.Delete(id)
		return
	}
	defer a.store.Delete(id)
	a.bridge(conn, sess, c.Query("raw") == "true")
}

// bridge pumps output from sess's Broker to the connection and client
// input frames to the Broker until either side closes.
func (a *API) bridge(conn *websocket.Conn, sess *session.Session, raw bool) {
	defer conn.Close()

	if a.metrics != nil {
		a.metrics.IncWSConnections()
		defer a.metrics.DecWSConnections()
	}

	sub := sess.Broker.Subscribe()
	defer sess.Broker.Unsubscribe(sub)

	done := make(chan struct{})
	go a.readPump(conn, sess, done)

	a.writePump(conn, sess, sub, raw, done)
}

// readPump dispatches client frames to the Session until the connection
// closes or the caller's done channel is closed by the write side.
func (a *API) readPump(conn *websocket.Conn, sess *session.Session, done chan struct{}) {
	defer close(done)
	for {
		var frame clientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		a.recordWSMessage("in", frame.Type)

		switch frame.Type {
		case "input":
			if err := sess.Broker.SendInput([]byte(frame.Data)); err != nil {
				return
			}
		case "resize":
			if frame.Cols > 0 && frame.Rows > 0 {
				sess.PTY.Resize(frame.Cols, frame.Rows)
			}
		case "signal":
			if b, ok := signalBytes[frame.Signal]; ok {
				sess.Broker.SendInput([]byte{b})
			}
		}
	}
}

// writePump streams Broker frames and lifecycle events to the connection
// until the Session closes, the Subscription closes, or the read side
// signals done.
func (a *API) writePump(conn *websocket.Conn, sess *session.Session, sub *broker.Subscription, raw bool, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-sess.PTY.Done():
			status := sess.PTY.Wait()
			a.send(conn, exitFrame(status.Code))
			return
		case frame, ok := <-sub.Frames():
			if !ok {
				return
			}
			a.recordWSMessage("out", "output")
			if err := a.send(conn, outputFrame(frame.Seq, frame.Text)); err != nil {
				return
			}
			if raw {
				a.recordWSMessage("out", "raw")
				if err := a.send(conn, serverFrame{Type: "raw", Seq: frame.Seq, Raw: base64.StdEncoding.EncodeToString(frame.Raw)}); err != nil {
					return
				}
			}
			if sub.Lagged() {
				a.recordWSMessage("out", "lagged")
				if err := a.send(conn, laggedFrame(sub.DroppedCount())); err != nil {
					return
				}
				sub.ClearLagged()
			}
		}
	}
}

func (a *API) send(conn *websocket.Conn, f serverFrame) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(f)
}

func (a *API) recordWSMessage(direction, msgType string) {
	if a.metrics != nil {
		a.metrics.RecordWSMessage(direction, msgType)
	}
}
