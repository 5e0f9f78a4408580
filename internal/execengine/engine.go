package execengine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iyulab/shell-tunnel/internal/logging"
	"github.com/iyulab/shell-tunnel/internal/metrics"
	"github.com/iyulab/shell-tunnel/internal/session"
	"github.com/iyulab/shell-tunnel/internal/shellkind"
	"github.com/iyulab/shell-tunnel/internal/tracing"
)

// pollInterval is how often the engine re-checks the transcript for the
// sentinel line while a command is outstanding.
const pollInterval = 20 * time.Millisecond

// graceWindow is how long the engine waits for a clean exit after sending
// an interrupt signal on timeout, before reporting TimedOut (spec §4.4).
const graceWindow = 2 * time.Second

// Config holds the Execution Engine's tunables, sourced from the gateway's
// configuration layer.
type Config struct {
	DefaultTimeout  time.Duration
	MaxCommandBytes int
	Sandboxed       bool
}

// DefaultConfig returns the engine's out-of-the-box tunables.
func DefaultConfig() Config {
	return Config{
		DefaultTimeout:  30 * time.Second,
		MaxCommandBytes: 64 * 1024,
		Sandboxed:       false,
	}
}

// Engine runs commands to completion inside a Session's shell using the
// sentinel protocol (spec §4.4). It never reads a Session's PTY directly —
// all transcript access goes through the Session's Broker.
type Engine struct {
	cfg     Config
	metrics *metrics.Metrics
	tracer  *tracing.Tracer
	log     *logging.Logger
}

// New creates an Execution Engine. metrics and tracer may be nil.
func New(cfg Config, m *metrics.Metrics, tracer *tracing.Tracer, log *logging.Logger) *Engine {
	if log == nil {
		log = logging.NewDefault()
	}
	return &Engine{cfg: cfg, metrics: m, tracer: tracer, log: log}
}

// Execute submits req.Command to sess's shell and blocks until completion,
// timeout, or ctx cancellation. Exactly one command may be in flight per
// session; a second concurrent call returns ErrSessionBusy.
func (e *Engine) Execute(ctx context.Context, sess *session.Session, req CommandRequest) (CommandResult, error) {
	var span *tracing.Span
	if e.tracer != nil {
		span, ctx = e.tracer.StartSpan(ctx, "execengine.Execute")
		span.SetSession(sess.ID.String())
		span.SetCommand(req.Command)
		defer func() { e.tracer.Submit(span) }()
		defer span.Finish()
	}

	if err := shellkind.Validate(req.Command, e.cfg.MaxCommandBytes, e.cfg.Sandboxed); err != nil {
		e.recordRejection(rejectionReason(err))
		return CommandResult{}, ErrInvalidCommand
	}

	if !sess.TryBeginExecution() {
		e.recordRejection("session_busy")
		return CommandResult{}, ErrSessionBusy
	}
	defer sess.EndExecution()

	select {
	case <-sess.PTY.Done():
		return CommandResult{}, ErrSessionClosed
	default:
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = e.cfg.DefaultTimeout
	}

	sess.Ctx.BeginCommand(req.Command)

	start := time.Now()
	result, err := e.run(ctx, sess, req.Command, req.Input, timeout)
	duration := time.Since(start)
	result.DurationMs = duration.Milliseconds()

	if err != nil {
		sess.Ctx.CompleteCommand("", nil)
		e.recordCommand("error", duration)
		if span != nil {
			span.SetError(err)
		}
		return result, err
	}

	if result.TimedOut {
		e.recordTimeout(duration)
		if span != nil {
			span.Log("command timed out", nil)
		}
		return result, nil
	}

	status := "success"
	if !result.Success {
		status = "failure"
	}
	e.recordCommand(status, duration)
	if span != nil && !result.Success {
		span.SetTag("exit_code", exitCodeTag(result.ExitCode))
	}
	return result, nil
}

func exitCodeTag(code *int) string {
	if code == nil {
		return "unknown"
	}
	return fmt.Sprintf("%d", *code)
}

func (e *Engine) run(ctx context.Context, sess *session.Session, command string, input []byte, timeout time.Duration) (CommandResult, error) {
	baseline := sess.Broker.TranscriptSnapshot()
	sentinel := newSentinel()
	written := sess.Shell.Wrap(command, sentinel) + sess.Shell.LineSeparator()

	if err := sess.Broker.SendInput([]byte(written)); err != nil {
		sess.Ctx.CompleteCommand("", nil)
		return CommandResult{}, ErrSessionClosed
	}

	// Input is delivered to the running command's stdin, before the
	// sentinel line can possibly appear (spec §3).
	if len(input) > 0 {
		if err := sess.Broker.SendInput(input); err != nil {
			sess.Ctx.CompleteCommand("", nil)
			return CommandResult{}, ErrSessionClosed
		}
	}

	deadline := time.After(timeout)
	if res, ok := e.pollUntil(ctx, sess, baseline, written, sentinel, deadline); ok {
		exitCode := res.exitCode
		sess.Ctx.CompleteCommand(res.cwd, &exitCode)
		return CommandResult{
			Success:  exitCode == 0,
			ExitCode: &exitCode,
			Output:   res.output,
		}, nil
	}

	// Timeout: interrupt and give the shell a short grace window to settle.
	_ = sess.Broker.SendInput([]byte{0x03})
	grace := time.After(graceWindow)
	if res, ok := e.pollUntil(ctx, sess, baseline, written, sentinel, grace); ok {
		exitCode := res.exitCode
		sess.Ctx.CompleteCommand(res.cwd, &exitCode)
		return CommandResult{
			Success:  exitCode == 0,
			ExitCode: &exitCode,
			Output:   res.output,
		}, nil
	}

	newText := stripEcho(sess.Broker.TranscriptSnapshot()[len(baseline):], written)
	sess.Ctx.CompleteCommand("", nil)
	return CommandResult{Success: false, Output: newText, TimedOut: true}, nil
}

func (e *Engine) pollUntil(ctx context.Context, sess *session.Session, baseline, written, sentinel string, until <-chan time.Time) (scanResult, bool) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		snapshot := sess.Broker.TranscriptSnapshot()
		if len(snapshot) >= len(baseline) {
			if res, ok := findSentinel(snapshot[len(baseline):], written, sentinel); ok {
				return res, true
			}
		}

		select {
		case <-ctx.Done():
			return scanResult{}, false
		case <-sess.PTY.Done():
			return scanResult{}, false
		case <-until:
			return scanResult{}, false
		case <-ticker.C:
		}
	}
}

func rejectionReason(err error) string {
	switch err {
	case shellkind.ErrCommandTooLong:
		return "command_too_long"
	case shellkind.ErrEmbeddedNUL:
		return "embedded_nul"
	case shellkind.ErrDangerous:
		return "dangerous_pattern"
	default:
		return "invalid"
	}
}

func (e *Engine) recordRejection(reason string) {
	if e.metrics != nil {
		e.metrics.RecordRejection(reason)
	}
	e.log.Debug("command rejected", zap.String("reason", reason))
}

func (e *Engine) recordCommand(status string, d time.Duration) {
	if e.metrics != nil {
		e.metrics.RecordCommand(status, d)
	}
}

func (e *Engine) recordTimeout(d time.Duration) {
	if e.metrics != nil {
		e.metrics.RecordCommand("timeout", d)
		e.metrics.IncCommandsTimedOut()
	}
}
