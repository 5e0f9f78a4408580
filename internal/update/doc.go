// Package update is the self-update collaborator spec §1 names as external
// to the core: it periodically polls a release manifest over HTTP (behind
// a circuit breaker) and logs, but never applies, an available update.
// Disabled by default.
package update
