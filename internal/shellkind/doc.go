// Package shellkind identifies the supported interactive shells (Bash, Zsh,
// Sh, PowerShell, Cmd), resolves platform defaults and executable paths,
// composes the sentinel-delimited command wrapper each shell kind requires,
// and validates commands against the built-in dangerous-pattern list before
// they ever reach a PTY.
package shellkind
