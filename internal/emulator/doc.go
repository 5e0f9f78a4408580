// Package emulator implements the Terminal Emulator: a total, panic-free
// state machine that strips standard terminal escape sequences (CSI, OSC,
// SS2/SS3, DCS, plus common single-byte controls) from a raw PTY byte
// stream to produce a sanitized plain-text transcript, while maintaining a
// virtual screen grid with cursor position in parallel.
//
// Invalid UTF-8 continuations are rendered as the Unicode replacement
// character; the parser never stalls or panics on malformed input.
package emulator
