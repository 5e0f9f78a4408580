// Package pty abstracts pseudo-terminal creation and lifecycle management
// across hosts, grounded on github.com/creack/pty. A Handle exposes a
// byte-oriented read half (channel-backed, fed by a dedicated blocking
// reader goroutine), a byte-oriented write half, resize, wait-for-exit, and
// kill — the only operations the rest of the system needs, and the only
// component permitted to touch the raw PTY file descriptor.
package pty
