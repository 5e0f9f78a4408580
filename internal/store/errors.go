package store

import "errors"

// ErrNotFound is returned when an operation references an unknown or
// already-deleted session id.
var ErrNotFound = errors.New("store: session not found")

// ErrExhaustedIDs is returned when the monotonic id counter has wrapped,
// which is practically unreachable.
var ErrExhaustedIDs = errors.New("store: session id space exhausted")
