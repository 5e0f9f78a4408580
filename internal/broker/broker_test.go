package broker

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyulab/shell-tunnel/internal/emulator"
	"github.com/iyulab/shell-tunnel/internal/pty"
	"github.com/iyulab/shell-tunnel/internal/shellkind"
)

func newTestBroker(t *testing.T) (*Broker, *pty.Handle) {
	t.Helper()
	handle, err := pty.Spawn(shellkind.Sh, pty.Size{Cols: 80, Rows: 24}, nil, "")
	require.NoError(t, err)

	sanitizer := emulator.New(80, 24)
	b := New(handle, sanitizer, nil)
	b.Start()
	return b, handle
}

func TestSubscribeReceivesOutput(t *testing.T) {
	b, handle := newTestBroker(t)
	defer handle.Kill(false)

	sub := b.Subscribe()
	require.NoError(t, b.SendInput([]byte("echo hello-broker\n")))

	deadline := time.After(5 * time.Second)
	var collected strings.Builder
	for {
		select {
		case frame := <-sub.Frames():
			collected.WriteString(frame.Text)
			if strings.Contains(collected.String(), "hello-broker") {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for echoed output")
		}
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	b, handle := newTestBroker(t)
	defer handle.Kill(false)

	sub := b.Subscribe()
	b.Unsubscribe(sub)
	assert.NotPanics(t, func() { b.Unsubscribe(sub) })
}

func TestSendInputAfterCloseErrors(t *testing.T) {
	b, handle := newTestBroker(t)
	handle.Kill(false)
	<-b.Closed()

	err := b.SendInput([]byte("echo\n"))
	assert.Error(t, err)
}
