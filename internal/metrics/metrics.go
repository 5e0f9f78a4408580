package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the shell gateway.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Session metrics
	SessionsActive prometheus.Gauge
	SessionsTotal  prometheus.Counter
	SessionsReaped *prometheus.CounterVec

	// Command metrics
	CommandsTotal    *prometheus.CounterVec
	CommandDuration  *prometheus.HistogramVec
	CommandsTimedOut prometheus.Counter
	CommandsRejected *prometheus.CounterVec

	// WebSocket / broker metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec
	FramesDropped prometheus.Counter

	// Outbound-dependency metrics
	BreakerState *prometheus.GaugeVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	// snapshot tracks aggregate values for non-Prometheus consumers (e.g. a
	// lightweight JSON status endpoint).
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current metric values for a JSON status API.
type Snapshot struct {
	TotalRequests  int64
	TotalErrors    int64
	ActiveSessions int64
	TotalDuration  float64
	RequestCount   int64
}

// New creates a new metrics collector and registers it with the default
// Prometheus registry.
func New() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelltunnel_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shelltunnel_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		SessionsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "shelltunnel_sessions_active",
				Help: "Number of active PTY sessions",
			},
		),
		SessionsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "shelltunnel_sessions_total",
				Help: "Total number of sessions created",
			},
		),
		SessionsReaped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelltunnel_sessions_reaped_total",
				Help: "Total number of sessions removed, by reason",
			},
			[]string{"reason"},
		),

		CommandsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelltunnel_commands_total",
				Help: "Total number of commands executed, by status",
			},
			[]string{"status"},
		),
		CommandDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shelltunnel_command_duration_seconds",
				Help:    "Command execution duration in seconds",
				Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"status"},
		),
		CommandsTimedOut: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "shelltunnel_commands_timed_out_total",
				Help: "Total number of commands that hit their timeout",
			},
		),
		CommandsRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelltunnel_commands_rejected_total",
				Help: "Total number of commands rejected before execution, by reason",
			},
			[]string{"reason"},
		),

		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "shelltunnel_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelltunnel_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
		FramesDropped: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "shelltunnel_frames_dropped_total",
				Help: "Total number of output frames dropped due to a lagging subscriber",
			},
		),

		BreakerState: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "shelltunnel_circuit_breaker_state",
				Help: "Current circuit breaker state by name (0=closed, 1=half-open, 2=open)",
			},
			[]string{"breaker"},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "shelltunnel_uptime_seconds",
				Help: "Gateway uptime in seconds",
			},
		),
	}

	go m.updateUptime()

	return m
}

func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request outcome.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if len(status) > 0 && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordCommand records a completed command execution.
func (m *Metrics) RecordCommand(status string, duration time.Duration) {
	m.CommandsTotal.WithLabelValues(status).Inc()
	m.CommandDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// IncCommandsTimedOut increments the command timeout counter.
func (m *Metrics) IncCommandsTimedOut() {
	m.CommandsTimedOut.Inc()
}

// RecordRejection records a command rejected prior to execution.
func (m *Metrics) RecordRejection(reason string) {
	m.CommandsRejected.WithLabelValues(reason).Inc()
}

// SetSessionsActive sets the current active session count.
func (m *Metrics) SetSessionsActive(count int) {
	m.SessionsActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveSessions = int64(count)
	m.mu.Unlock()
}

// IncSessionsTotal increments the total sessions created counter.
func (m *Metrics) IncSessionsTotal() {
	m.SessionsTotal.Inc()
}

// IncSessionsReaped increments the sessions-reaped counter for a reason
// (e.g. "idle_timeout", "process_exited", "explicit_delete").
func (m *Metrics) IncSessionsReaped(reason string) {
	m.SessionsReaped.WithLabelValues(reason).Inc()
}

// RecordWSMessage records a WebSocket frame by direction ("in"/"out") and
// frame type (e.g. "input", "output", "resize", "exit").
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments the active WebSocket connection gauge.
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements the active WebSocket connection gauge.
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// IncFramesDropped increments the dropped-output-frame counter.
func (m *Metrics) IncFramesDropped() {
	m.FramesDropped.Inc()
}

// SetBreakerState records a named circuit breaker's current state as a
// gauge value (0=closed, 1=half-open, 2=open), for dashboards watching an
// outbound dependency such as the update-manifest channel.
func (m *Metrics) SetBreakerState(name string, numericState int) {
	m.BreakerState.WithLabelValues(name).Set(float64(numericState))
}

// Snapshot returns a point-in-time copy of the aggregate counters, for use
// by a lightweight JSON status endpoint alongside the Prometheus exposition.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
