// Package sessionctx holds per-session derived state — working directory,
// environment overlay, last exit status, last command text, and idle
// tracking — as described in spec §4.3. It is a plain state container:
// only the Execution Engine mutates it, and only between commands.
package sessionctx
