package wsapi

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/iyulab/shell-tunnel/internal/shellkind"
	"github.com/iyulab/shell-tunnel/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := store.DefaultConfig()
	cfg.DefaultShell = shellkind.Sh
	s := store.New(cfg, nil, nil)
	t.Cleanup(s.Close)

	r := gin.New()
	New(s, nil, nil).Register(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, s
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestOneShotWSEchoesOutput(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv, "/api/v1/ws")

	require.NoError(t, conn.WriteJSON(clientFrame{Type: "input", Data: "echo ws-hello\n"}))

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var frame serverFrame
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("read error: %v", err)
		}
		if frame.Type == "output" && strings.Contains(frame.Text, "ws-hello") {
			return
		}
	}
	t.Fatal("never observed echoed output")
}

func TestAttachToExistingSession(t *testing.T) {
	srv, s := newTestServer(t)

	id, err := s.Create(store.CreateOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Delete(id) })

	conn := dial(t, srv, "/api/v1/sessions/"+id.String()+"/ws")
	require.NoError(t, conn.WriteJSON(clientFrame{Type: "input", Data: "echo attached\n"}))

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var frame serverFrame
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("read error: %v", err)
		}
		if frame.Type == "output" && strings.Contains(frame.Text, "attached") {
			return
		}
	}
	t.Fatal("never observed echoed output")
}
