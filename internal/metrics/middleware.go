package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware that records HTTP request metrics.
func Middleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		duration := time.Since(start)
		status := strconv.Itoa(c.Writer.Status())
		m.RecordHTTPRequest(method, path, status, duration)
	}
}

// CommandTimer measures command execution duration and records the outcome
// on Stop.
type CommandTimer struct {
	start   time.Time
	metrics *Metrics
}

// NewCommandTimer starts a timer for a command execution.
func NewCommandTimer(m *Metrics) *CommandTimer {
	return &CommandTimer{start: time.Now(), metrics: m}
}

// Stop records the elapsed duration under the given status (e.g. "success",
// "failure", "timeout").
func (t *CommandTimer) Stop(status string) {
	t.metrics.RecordCommand(status, time.Since(t.start))
}
