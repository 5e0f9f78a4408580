package execengine

import "errors"

// ErrSessionBusy is returned when a command is submitted to a session that
// already has a command in flight (spec §4.4's default-reject policy).
var ErrSessionBusy = errors.New("execengine: session has a command in flight")

// ErrInvalidCommand wraps a shellkind.Validate failure.
var ErrInvalidCommand = errors.New("execengine: command failed validation")

// ErrSessionClosed is returned when a command is submitted to a session
// whose PTY has already exited or been torn down.
var ErrSessionClosed = errors.New("execengine: session is closed")
