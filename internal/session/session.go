package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/iyulab/shell-tunnel/internal/broker"
	"github.com/iyulab/shell-tunnel/internal/emulator"
	"github.com/iyulab/shell-tunnel/internal/logging"
	"github.com/iyulab/shell-tunnel/internal/pty"
	"github.com/iyulab/shell-tunnel/internal/sessionctx"
	"github.com/iyulab/shell-tunnel/internal/shellkind"
)

// ID is a dense, monotonically assigned session identifier (spec §3).
type ID uint64

// String renders the canonical wire form, e.g. "sess-00000001".
func (id ID) String() string {
	return fmt.Sprintf("sess-%08d", uint64(id))
}

// MarshalJSON renders the ID as its canonical string form.
func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.String() + `"`), nil
}

// Session ties together a PTY handle, its terminal emulator, session
// context, and streaming broker — the composite entity spec §3 describes.
// Exactly one Session exists per live PtyHandle; the Store owns creation
// and destruction.
type Session struct {
	ID        ID
	Shell     shellkind.Kind
	PTY       *pty.Handle
	Broker    *broker.Broker
	Ctx       *sessionctx.Context
	CreatedAt time.Time

	// cmdLock gates Execution Engine invocations: at most one command may
	// be in flight per session (spec §4.4's concurrency policy).
	cmdLock sync.Mutex

	mu    sync.RWMutex
	state State
}

// New wires a freshly spawned PTY handle and its emulator into a Session in
// the Starting state. The caller (Store.Create) is responsible for
// assigning the ID.
func New(id ID, shell shellkind.Kind, handle *pty.Handle, size pty.Size, cwd string, log *logging.Logger) *Session {
	sanitizer := emulator.New(size.Cols, size.Rows)
	b := broker.New(handle, sanitizer, log)

	s := &Session{
		ID:        id,
		Shell:     shell,
		PTY:       handle,
		Broker:    b,
		Ctx:       sessionctx.New(cwd),
		CreatedAt: time.Now(),
		state:     Starting,
	}
	b.Start()
	return s
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetState transitions the session to a new state. Failed is absorbing:
// once set, no further transition is accepted.
func (s *Session) SetState(next State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Failed || s.state == Closed {
		return
	}
	s.state = next
}

// TryBeginExecution attempts to acquire the per-session command lock
// without blocking. It returns false (SessionBusy, per spec §4.4) if a
// command is already in flight.
func (s *Session) TryBeginExecution() bool {
	if !s.cmdLock.TryLock() {
		return false
	}
	s.SetState(Executing)
	return true
}

// EndExecution releases the command lock and returns the session to Idle,
// unless it has since moved to Closing/Closed/Failed.
func (s *Session) EndExecution() {
	s.mu.Lock()
	if s.state == Executing {
		s.state = Idle
	}
	s.mu.Unlock()
	s.cmdLock.Unlock()
}
