/*
Package resilience provides circuit breaker implementation for graceful degradation.

# Overview

This package implements the circuit breaker pattern to prevent cascading failures
and provide graceful degradation when an outbound dependency becomes unavailable or
slow. The gateway's only outbound dependency today is the self-update checker's
release-manifest endpoint (internal/update), which wraps every fetch in a Breaker
so a flaky or down update server never blocks or slows PTY traffic.

# Features

- Three-state circuit breaker (Closed, Open, Half-Open)
- Configurable failure thresholds and timeouts
- Automatic state transitions
- Concurrent request handling
- State change callbacks for monitoring
- Thread-safe operations

# Usage

	// internal/update.Client wraps its manifest fetch in exactly this shape.
	breaker := resilience.New("update-manifest", resilience.Settings{
		MaxRequests: 2,
		Interval:    10 * time.Minute,
		Timeout:     5 * time.Minute,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to resilience.State) {
			log.Printf("circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	// Execute request through breaker
	result, err := breaker.Execute(func() (interface{}, error) {
		return client.FetchManifest(ctx, url)
	})

# States

- Closed: Normal operation, requests pass through
- Open: Service unavailable, requests fail immediately
- Half-Open: Testing if service recovered, limited requests allowed

# Pattern

The circuit breaker transitions between states based on success/failure rates:

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open
*/
package resilience
