package execengine

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
)

// newSentinel mints a fresh 128-bit random value from crypto/rand,
// hex-encoded, for use as a command-completion marker (spec §4.4). All 128
// bits are random: unlike a v4 UUID, no version or variant bits are fixed.
func newSentinel() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("execengine: crypto/rand failed: " + err.Error())
	}
	return hex.EncodeToString(b[:])
}

// sentinelLine matches a shell-kind's "<sentinel>:<exit_code>:<cwd>"
// completion line. The cwd field is greedy to the end of its line since
// paths may themselves contain colons (e.g. on Windows, "C:\...").
func sentinelLine(sentinel string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(sentinel) + `:(-?\d+):(.*)$`)
}

// scanResult is what findSentinel extracts from a transcript once the
// completion line appears.
type scanResult struct {
	output   string
	exitCode int
	cwd      string
}

// findSentinel searches newText (transcript content observed since command
// submission) for the completion line. It returns ok=false if the sentinel
// has not yet appeared.
func findSentinel(newText, written, sentinel string) (scanResult, bool) {
	re := sentinelLine(sentinel)
	loc := re.FindStringSubmatchIndex(newText)
	if loc == nil {
		return scanResult{}, false
	}

	output := newText[:loc[0]]
	output = stripEcho(output, written)

	exitCode, err := strconv.Atoi(newText[loc[2]:loc[3]])
	if err != nil {
		exitCode = -1
	}
	cwd := strings.TrimRight(newText[loc[4]:loc[5]], "\r")

	return scanResult{output: output, exitCode: exitCode, cwd: cwd}, true
}

// stripEcho removes the first echo of the exact bytes written to the
// PTY, since most shells print back the input line before any command
// output appears (spec §4.4's "no other component reads the PTY" note means
// the engine must clean this up itself rather than rely on the PTY running
// in a non-echoing mode).
func stripEcho(output, written string) string {
	trimmedWritten := strings.TrimRight(written, "\r\n")
	if trimmedWritten == "" {
		return output
	}
	if idx := strings.Index(output, trimmedWritten); idx >= 0 {
		rest := output[idx+len(trimmedWritten):]
		rest = strings.TrimLeft(rest, "\r\n")
		return output[:idx] + rest
	}
	return output
}
