package sessionctx

import (
	"runtime"
	"strings"
	"sync"
	"time"
)

// Context is per-session derived state (spec §4.3). Command-related fields
// are mutated only by the Execution Engine, between commands; the
// last-activity time is also refreshed by Touch on any PTY read or write.
// Reads are safe from any goroutine at any time.
type Context struct {
	mu sync.RWMutex

	cwd           string
	env           map[string]string
	lastExitCode  *int
	lastCommand   string
	idle          bool
	createdAt     time.Time
	lastActivity  time.Time
}

// New creates a Context seeded with an initial working directory.
func New(cwd string) *Context {
	now := time.Now()
	return &Context{
		cwd:          cwd,
		env:          make(map[string]string),
		idle:         true,
		createdAt:    now,
		lastActivity: now,
	}
}

// Cwd returns the current working directory.
func (c *Context) Cwd() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cwd
}

// Env returns a copy of the environment overlay.
func (c *Context) Env() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.env))
	for k, v := range c.env {
		out[k] = v
	}
	return out
}

// LastExitCode returns the last command's exit code, or nil if no command
// has completed yet or the last command timed out.
func (c *Context) LastExitCode() *int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.lastExitCode == nil {
		return nil
	}
	v := *c.lastExitCode
	return &v
}

// LastCommand returns the most recently submitted command text.
func (c *Context) LastCommand() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastCommand
}

// Idle reports whether the session is between commands.
func (c *Context) Idle() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.idle
}

// CreatedAt returns the session's creation timestamp.
func (c *Context) CreatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.createdAt
}

// LastActivity returns the timestamp of the most recent PTY read or write.
func (c *Context) LastActivity() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastActivity
}

// Touch refreshes last-activity-at; called on any PTY read or write.
func (c *Context) Touch() {
	c.mu.Lock()
	c.lastActivity = time.Now()
	c.mu.Unlock()
}

// BeginCommand marks the session busy and records the command text.
func (c *Context) BeginCommand(command string) {
	c.mu.Lock()
	c.idle = false
	c.lastCommand = command
	c.lastActivity = time.Now()
	c.mu.Unlock()
}

// CompleteCommand applies the probe-derived results of a finished command:
// new cwd (if non-empty), exit code (nil if timed out), and returns the
// session to idle.
func (c *Context) CompleteCommand(cwd string, exitCode *int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cwd != "" {
		c.cwd = cwd
	}
	c.lastExitCode = exitCode
	c.idle = true
	c.lastActivity = time.Now()
}

// SetEnv applies an environment-overlay update, keyed case-insensitively on
// Windows and case-sensitively elsewhere, per spec §3.
func (c *Context) SetEnv(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.env[envKey(name)] = value
}

// envKey normalizes an environment variable name for storage, matching the
// host platform's case sensitivity.
func envKey(name string) string {
	if runtime.GOOS == "windows" {
		return strings.ToUpper(name)
	}
	return name
}
