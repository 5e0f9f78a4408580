package execengine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iyulab/shell-tunnel/internal/pty"
	"github.com/iyulab/shell-tunnel/internal/session"
	"github.com/iyulab/shell-tunnel/internal/shellkind"
)

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	handle, err := pty.Spawn(shellkind.Sh, pty.Size{Cols: 80, Rows: 24}, nil, "")
	require.NoError(t, err)
	t.Cleanup(func() { handle.Kill(false) })
	return session.New(1, shellkind.Sh, handle, pty.Size{Cols: 80, Rows: 24}, "", nil)
}

func TestExecuteSuccessfulCommand(t *testing.T) {
	sess := newTestSession(t)
	e := New(DefaultConfig(), nil, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := e.Execute(ctx, sess, CommandRequest{Command: "echo hello-engine"})
	require.NoError(t, err)
	require.False(t, res.TimedOut)
	require.True(t, res.Success)
	require.NotNil(t, res.ExitCode)
	require.Equal(t, 0, *res.ExitCode)
	require.True(t, strings.Contains(res.Output, "hello-engine"))
}

func TestExecuteNonZeroExit(t *testing.T) {
	sess := newTestSession(t)
	e := New(DefaultConfig(), nil, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := e.Execute(ctx, sess, CommandRequest{Command: "sh -c 'exit 7'"})
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, 7, *res.ExitCode)
}

func TestExecuteRejectsDangerousCommand(t *testing.T) {
	sess := newTestSession(t)
	e := New(DefaultConfig(), nil, nil, nil)

	_, err := e.Execute(context.Background(), sess, CommandRequest{Command: "rm -rf /"})
	require.ErrorIs(t, err, ErrInvalidCommand)
}

func TestExecuteRejectsConcurrentCommand(t *testing.T) {
	sess := newTestSession(t)
	require.True(t, sess.TryBeginExecution())
	defer sess.EndExecution()

	e := New(DefaultConfig(), nil, nil, nil)
	_, err := e.Execute(context.Background(), sess, CommandRequest{Command: "echo hi"})
	require.ErrorIs(t, err, ErrSessionBusy)
}

func TestExecuteDeliversInputToCommandStdin(t *testing.T) {
	sess := newTestSession(t)
	e := New(DefaultConfig(), nil, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := e.Execute(ctx, sess, CommandRequest{Command: "read line && echo got:$line", Input: []byte("hello-stdin\n")})
	require.NoError(t, err)
	require.False(t, res.TimedOut)
	require.True(t, strings.Contains(res.Output, "got:hello-stdin"))
}

func TestExecuteTimesOut(t *testing.T) {
	sess := newTestSession(t)
	e := New(DefaultConfig(), nil, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := e.Execute(ctx, sess, CommandRequest{Command: "sleep 30", Timeout: 200 * time.Millisecond})
	require.NoError(t, err)
	require.True(t, res.TimedOut)
	require.Nil(t, res.ExitCode)
}
