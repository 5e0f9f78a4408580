package store

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iyulab/shell-tunnel/internal/logging"
	"github.com/iyulab/shell-tunnel/internal/metrics"
	"github.com/iyulab/shell-tunnel/internal/pty"
	"github.com/iyulab/shell-tunnel/internal/session"
	"github.com/iyulab/shell-tunnel/internal/shellkind"
)

// readyDeadline bounds how long Create waits for the first PTY output
// before declaring a freshly spawned Session Idle regardless (spec §4.5).
const readyDeadline = 2 * time.Second

// Store is a keyed registry of live Sessions, protected by reader/writer
// discipline, with monotonic identifier assignment and background reaping
// of idle or exited sessions (spec §4.5). A process hosts exactly one Store
// for its lifetime; tests construct their own rather than relying on a
// global.
type Store struct {
	cfg     Config
	metrics *metrics.Metrics
	log     *logging.Logger

	mu       sync.RWMutex
	sessions map[session.ID]*session.Session
	nextID   atomic.Uint64

	stop chan struct{}
	done chan struct{}
}

// New creates a Store and starts its background reaper. metrics may be nil.
func New(cfg Config, m *metrics.Metrics, log *logging.Logger) *Store {
	if log == nil {
		log = logging.NewDefault()
	}
	if cfg.ReaperPeriod <= 0 {
		cfg.ReaperPeriod = DefaultConfig().ReaperPeriod
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultConfig().IdleTTL
	}
	if cfg.DefaultShell == "" {
		cfg.DefaultShell = shellkind.Default()
	}
	if cfg.DefaultSize.Cols <= 0 || cfg.DefaultSize.Rows <= 0 {
		cfg.DefaultSize = pty.DefaultSize
	}

	s := &Store{
		cfg:      cfg,
		metrics:  m,
		log:      log,
		sessions: make(map[session.ID]*session.Session),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.reapLoop()
	return s
}

// Create spawns a new PTY-backed Session and registers it under a fresh
// monotonic id. The Session starts in Starting and transitions to Idle
// once its first output is observed or readyDeadline elapses, whichever is
// sooner.
func (s *Store) Create(opts CreateOptions) (session.ID, error) {
	shell := opts.Shell
	if shell == "" || !shell.Valid() {
		shell = s.cfg.DefaultShell
	}
	size := opts.Size
	if size.Cols <= 0 || size.Rows <= 0 {
		size = s.cfg.DefaultSize
	}

	id := session.ID(s.nextID.Add(1))
	if id == 0 {
		return 0, ErrExhaustedIDs
	}

	handle, err := pty.Spawn(shell, size, opts.Env, opts.Cwd)
	if err != nil {
		return 0, err
	}

	sess := session.New(id, shell, handle, size, opts.Cwd, s.log)
	sess.Broker.OnFrame(func(dropped bool) {
		sess.Ctx.Touch()
		if dropped && s.metrics != nil {
			s.metrics.IncFramesDropped()
		}
	})
	sess.Broker.OnWrite(sess.Ctx.Touch)

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.IncSessionsTotal()
		s.metrics.SetSessionsActive(s.count())
	}

	go s.awaitReady(sess)

	return id, nil
}

func (s *Store) awaitReady(sess *session.Session) {
	sub := sess.Broker.Subscribe()
	defer sess.Broker.Unsubscribe(sub)

	select {
	case <-sub.Frames():
	case <-sess.PTY.Done():
	case <-time.After(readyDeadline):
	}
	sess.SetState(session.Idle)
}

// Get returns the live Session for id, or ErrNotFound.
func (s *Store) Get(id session.ID) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Status returns a point-in-time snapshot for id, or ErrNotFound.
func (s *Store) Status(id session.ID) (Status, error) {
	sess, err := s.Get(id)
	if err != nil {
		return Status{}, err
	}
	return statusOf(sess), nil
}

// List returns a snapshot of every live Session, sorted by id ascending.
func (s *Store) List() []Status {
	s.mu.RLock()
	out := make([]Status, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, statusOf(sess))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Delete transitions the Session to Closing, performs a graceful PTY kill,
// then removes it from the Store. Idempotent: deleting an unknown or
// already-deleted id returns ErrNotFound.
func (s *Store) Delete(id session.ID) error {
	return s.delete(id, "explicit_delete")
}

func (s *Store) delete(id session.ID, reason string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.sessions, id)
	s.mu.Unlock()

	sess.SetState(session.Closing)
	sess.PTY.Kill(true)
	sess.SetState(session.Closed)

	if s.metrics != nil {
		s.metrics.IncSessionsReaped(reason)
		s.metrics.SetSessionsActive(s.count())
	}
	return nil
}

func (s *Store) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// reapLoop periodically deletes Sessions that have exceeded the idle TTL or
// whose child process has already exited (spec §4.5).
func (s *Store) reapLoop() {
	defer close(s.done)
	ticker := time.NewTicker(s.cfg.ReaperPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Store) sweep() {
	s.mu.RLock()
	candidates := make([]session.ID, 0)
	reasons := make(map[session.ID]string)
	now := time.Now()
	for id, sess := range s.sessions {
		select {
		case <-sess.PTY.Done():
			candidates = append(candidates, id)
			reasons[id] = "process_exited"
			continue
		default:
		}
		if now.Sub(sess.Ctx.LastActivity()) > s.cfg.IdleTTL {
			candidates = append(candidates, id)
			reasons[id] = "idle_timeout"
		}
	}
	s.mu.RUnlock()

	for _, id := range candidates {
		if err := s.delete(id, reasons[id]); err != nil {
			s.log.WithSession(id.String()).Debug("reaper: session already gone")
		}
	}
}

// Close stops the background reaper without touching live Sessions. Callers
// performing a full shutdown should still Delete each Session explicitly.
// Calling Close again, including after Shutdown, has no further effect.
func (s *Store) Close() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	<-s.done
}

// Shutdown drains every live Session for process exit, per the gateway's
// shutdown sequence: each Session is marked Closing so new commands are
// rejected, in-flight executions are given up to grace to finish naturally,
// and whatever remains is then killed and removed. The reaper is stopped
// first so it cannot race this drain.
func (s *Store) Shutdown(grace time.Duration) {
	s.Close()

	s.mu.RLock()
	ids := make([]session.ID, 0, len(s.sessions))
	sessions := make([]*session.Session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		ids = append(ids, id)
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	for _, sess := range sessions {
		sess.SetState(session.Closing)
	}

	deadline := time.Now().Add(grace)
	for _, sess := range sessions {
		for sess.State() == session.Executing && time.Now().Before(deadline) {
			time.Sleep(20 * time.Millisecond)
		}
	}

	for _, id := range ids {
		if err := s.delete(id, "shutdown"); err != nil {
			s.log.WithSession(id.String()).Debug("shutdown: session already gone")
		}
	}
}
