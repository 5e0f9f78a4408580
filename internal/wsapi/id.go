package wsapi

import (
	"strconv"
	"strings"

	"github.com/iyulab/shell-tunnel/internal/session"
)

// parseID accepts either the canonical "sess-00000001" wire form or a bare
// decimal integer.
func parseID(raw string) (session.ID, error) {
	raw = strings.TrimPrefix(raw, "sess-")
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return session.ID(v), nil
}
