// Package execengine implements the Execution Engine (spec §4.4): it
// submits commands to a Session's shell via a sentinel-delimited wrapper,
// polls the Broker's sanitized transcript for the completion line, and
// reports exit code, captured output, and working-directory changes back
// into the Session's Context.
package execengine
