package broker

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/iyulab/shell-tunnel/internal/emulator"
	"github.com/iyulab/shell-tunnel/internal/logging"
	"github.com/iyulab/shell-tunnel/internal/pty"
)

// ErrClosed is returned by SendInput once the broker's reader task has
// observed the PTY close.
var ErrClosed = errors.New("broker: pty closed")

// Broker provides per-session fan-out of PTY output to zero or more live
// subscribers, plus a single-writer input channel (spec §4.6). It owns the
// only goroutine that reads the Session's PTY handle.
type Broker struct {
	handle    *pty.Handle
	sanitizer *emulator.Sanitizer
	log       *logging.Logger

	seq atomic.Uint64

	mu   sync.RWMutex
	subs map[uint64]*Subscription
	next uint64

	writeMu sync.Mutex

	closed chan struct{}
	once   sync.Once

	onFrame func(dropped bool)
	onWrite func()
}

// New creates a Broker for the given PTY handle and terminal emulator. The
// handle and sanitizer are exclusively owned by the Broker once Start is
// called — no other component may read the handle or feed the sanitizer
// directly.
func New(handle *pty.Handle, sanitizer *emulator.Sanitizer, log *logging.Logger) *Broker {
	if log == nil {
		log = logging.NewDefault()
	}
	return &Broker{
		handle:    handle,
		sanitizer: sanitizer,
		log:       log,
		subs:      make(map[uint64]*Subscription),
		closed:    make(chan struct{}),
	}
}

// OnFrame registers a callback invoked once per produced frame, receiving
// whether any subscriber dropped a frame for it. Used by the session layer
// to feed Prometheus counters without the broker depending on the metrics
// package directly.
func (b *Broker) OnFrame(fn func(dropped bool)) {
	b.onFrame = fn
}

// OnWrite registers a callback invoked after every successful SendInput,
// letting the session layer refresh its idle clock on writes as well as
// reads without the broker depending on sessionctx directly.
func (b *Broker) OnWrite(fn func()) {
	b.onWrite = fn
}

// Start launches the broker's PTY-read fan-out task.
func (b *Broker) Start() {
	go b.readLoop()
}

func (b *Broker) readLoop() {
	for {
		chunk, err := b.handle.Read()
		if len(chunk) > 0 {
			b.publish(chunk)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				b.log.Warn("pty read error", zap.Error(err))
			}
			b.shutdown()
			return
		}
	}
}

func (b *Broker) publish(chunk []byte) {
	b.mu.Lock()
	text := b.sanitizer.Feed(chunk)
	b.mu.Unlock()

	frame := Frame{
		Seq:       b.seq.Add(1),
		Raw:       chunk,
		Text:      text,
		Timestamp: time.Now(),
	}

	dropped := false
	b.mu.RLock()
	for _, sub := range b.subs {
		before := sub.DroppedCount()
		sub.deliver(frame)
		if sub.DroppedCount() > before {
			dropped = true
		}
	}
	b.mu.RUnlock()

	if b.onFrame != nil {
		b.onFrame(dropped)
	}
}

func (b *Broker) shutdown() {
	b.once.Do(func() {
		close(b.closed)
		b.mu.Lock()
		for _, sub := range b.subs {
			sub.close()
		}
		b.subs = make(map[uint64]*Subscription)
		b.mu.Unlock()
	})
}

// Subscribe registers a new Subscription that receives all Frames produced
// from this point forward.
func (b *Broker) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	sub := newSubscription(b.next)
	b.subs[sub.id] = sub
	return sub
}

// Unsubscribe removes a Subscription. Idempotent.
func (b *Broker) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	if _, ok := b.subs[sub.id]; ok {
		delete(b.subs, sub.id)
		sub.close()
	}
	b.mu.Unlock()
}

// SendInput writes bytes directly to the PTY. Concurrent callers are
// linearized by writeMu with first-come ordering, satisfying the
// single-writer discipline spec §4.6 requires.
func (b *Broker) SendInput(data []byte) error {
	select {
	case <-b.closed:
		return ErrClosed
	default:
	}
	b.writeMu.Lock()
	_, err := b.handle.Write(data)
	b.writeMu.Unlock()
	if err == nil && b.onWrite != nil {
		b.onWrite()
	}
	return err
}

// TranscriptSnapshot returns the full sanitized transcript accumulated so
// far. Used by the Execution Engine to scan for a command's sentinel line
// without itself touching the PTY or the sanitizer's internal state.
func (b *Broker) TranscriptSnapshot() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sanitizer.Text()
}

// Closed returns a channel that is closed once the broker's reader task has
// observed the PTY close.
func (b *Broker) Closed() <-chan struct{} {
	return b.closed
}
