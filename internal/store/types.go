package store

import (
	"time"

	"github.com/iyulab/shell-tunnel/internal/pty"
	"github.com/iyulab/shell-tunnel/internal/session"
	"github.com/iyulab/shell-tunnel/internal/shellkind"
)

// CreateOptions requests a new Session. Zero values fall back to platform
// and configuration defaults (spec §4.5).
type CreateOptions struct {
	Shell shellkind.Kind
	Size  pty.Size
	Env   map[string]string
	Cwd   string
}

// Config holds the Store's tunables, sourced from the gateway's
// configuration layer (spec §6).
type Config struct {
	IdleTTL      time.Duration
	ReaperPeriod time.Duration
	DefaultShell shellkind.Kind
	DefaultSize  pty.Size
}

// DefaultConfig returns the Store's out-of-the-box tunables.
func DefaultConfig() Config {
	return Config{
		IdleTTL:      time.Hour,
		ReaperPeriod: 30 * time.Second,
	}
}

// Status is a point-in-time, read-only snapshot of a Session suitable for
// JSON serialization (spec §6).
type Status struct {
	ID           session.ID       `json:"id"`
	Shell        shellkind.Kind   `json:"shell"`
	State        session.State    `json:"state"`
	Cwd          string           `json:"cwd"`
	CreatedAt    time.Time        `json:"created_at"`
	LastActivity time.Time        `json:"last_activity"`
	LastExitCode *int             `json:"last_exit_code"`
	LastCommand  string           `json:"last_command"`
}

// statusOf builds a Status snapshot from a live Session.
func statusOf(s *session.Session) Status {
	return Status{
		ID:           s.ID,
		Shell:        s.Shell,
		State:        s.State(),
		Cwd:          s.Ctx.Cwd(),
		CreatedAt:    s.CreatedAt,
		LastActivity: s.Ctx.LastActivity(),
		LastExitCode: s.Ctx.LastExitCode(),
		LastCommand:  s.Ctx.LastCommand(),
	}
}
