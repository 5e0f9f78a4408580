// Command server runs the shell gateway: an HTTP and WebSocket front end
// over interactive PTY-backed shell sessions.
//
// The server provides:
//   - REST API for session lifecycle and one-shot command execution
//   - WebSocket streaming of interactive terminal output
//   - Prometheus metrics and lightweight in-process tracing
//   - Optional bearer-token auth and per-IP rate limiting
//
// Configuration:
//   - Environment variables (12-factor), see internal/config
//   - CLI flags (override env vars) for local development
//
// Usage:
//
//	# Production mode
//	./server -port 8000
//
//	# Development mode (colored console logs; level still from LOG_LEVEL)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: graceful shutdown
package main
