/*
Package tracing provides lightweight in-process tracing for debugging
session and command flows across the HTTP and WebSocket surfaces.

# Overview

This package implements minimal distributed-tracing concepts (spans, trace
propagation via headers) without pulling in a full OpenTelemetry stack —
trace and span identifiers are random UUIDs, and completed spans are logged
through the structured logger rather than exported to a collector.

# Features

  - Trace context propagation via HTTP headers
  - Span creation and management with parent-child relationships
  - Gin middleware for automatic HTTP instrumentation
  - Structured logging integration
  - Low overhead with buffered, async span collection

# Usage

	tracer := tracing.New("shell-gateway", logger)
	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "execute_command")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()
	span.SetTag("session_id", sessionID)

# Trace Format

Traces propagate via standard HTTP headers:
  - X-Trace-ID: identifies the entire request flow
  - X-Span-ID: identifies the current operation

# Performance

  - Buffered span collection (1000 spans)
  - Async span processing
  - No external collector dependency
*/
package tracing
