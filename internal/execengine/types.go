package execengine

import "time"

// CommandRequest is a request-scoped command submission (spec §3).
type CommandRequest struct {
	Command string
	Timeout time.Duration // zero means "use the engine's configured default"
	Input   []byte        // written to the PTY right after the wrapped command line
}

// CommandResult is the request-scoped outcome of a command submission
// (spec §3). Output never contains the sentinel used to delimit it.
type CommandResult struct {
	Success    bool
	ExitCode   *int
	Output     string
	DurationMs int64
	TimedOut   bool
}
