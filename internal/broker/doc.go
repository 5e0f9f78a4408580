// Package broker implements the Streaming Broker (spec §4.6): per-session
// fan-out of PTY output to zero or more live subscribers, plus a
// single-writer input channel. The broker owns the only goroutine that
// reads a Session's PTY handle; the Execution Engine taps the same
// sanitized transcript via TranscriptSnapshot rather than reading the PTY
// itself.
package broker
