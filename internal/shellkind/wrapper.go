package shellkind

import "fmt"

// Wrap composes a shell-kind-specific command wrapper that, after the
// command completes, prints a single sentinel-delimited line of the form
// "<sentinel>:<exit_code>:<cwd>" so the execution engine can detect command
// completion in the sanitized output stream.
func (k Kind) Wrap(command, sentinel string) string {
	switch k {
	case PowerShell:
		return fmt.Sprintf("& { %s }; \"`n%s:$LASTEXITCODE`:$((Get-Location).Path)\"", command, sentinel)
	case Cmd:
		return fmt.Sprintf("%s\r\necho %s:%%ERRORLEVEL%%:%%CD%%", command, sentinel)
	default: // Bash, Zsh, Sh
		return fmt.Sprintf(`{ %s; }; printf '\n%%s:%%d:%%s\n' "%s" "$?" "$PWD"`, command, sentinel)
	}
}
