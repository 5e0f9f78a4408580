package httpapi

import "github.com/iyulab/shell-tunnel/internal/shellkind"

// createSessionRequest is the body of POST /api/v1/sessions.
type createSessionRequest struct {
	Shell shellkind.Kind    `json:"shell"`
	Cols  int               `json:"cols"`
	Rows  int               `json:"rows"`
	Cwd   string            `json:"cwd"`
	Env   map[string]string `json:"env"`
}

// createSessionResponse is the body returned by POST /api/v1/sessions.
type createSessionResponse struct {
	ID string `json:"id"`
}

// executeRequest is the body of both execute routes.
type executeRequest struct {
	Command   string `json:"command"`
	TimeoutMs int    `json:"timeout_ms"`
	Input     string `json:"input"`
}

// oneShotRequest additionally allows choosing the throwaway session's
// shell kind and working directory.
type oneShotRequest struct {
	executeRequest
	Shell shellkind.Kind `json:"shell"`
	Cwd   string         `json:"cwd"`
}

// executeResponse is the stable wire contract from spec §6.
type executeResponse struct {
	Success    bool   `json:"success"`
	ExitCode   *int   `json:"exit_code"`
	Output     string `json:"output"`
	DurationMs int64  `json:"duration_ms"`
	TimedOut   bool   `json:"timed_out"`
}

// errorResponse is the uniform error body for every 4xx/5xx response.
type errorResponse struct {
	Error string `json:"error"`
}
