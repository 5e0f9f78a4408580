package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthConfig configures bearer-token allow-list authentication.
type AuthConfig struct {
	Enabled bool
	APIKeys []string
}

// Auth creates a middleware that requires a valid "Authorization: Bearer
// <key>" header matching one of the configured API keys. When disabled, it
// is a no-op.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	keys := make([][]byte, len(cfg.APIKeys))
	for i, k := range cfg.APIKeys {
		keys[i] = []byte(k)
	}

	return func(c *gin.Context) {
		token := extractBearerToken(c.GetHeader("Authorization"))
		if token == "" || !matchesAny(keys, token) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid credentials"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func extractBearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// matchesAny performs a constant-time comparison against every configured
// key so that the position of the matching key cannot be timed.
func matchesAny(keys [][]byte, token string) bool {
	tokenBytes := []byte(token)
	matched := 0
	for _, k := range keys {
		if len(k) == len(tokenBytes) && subtle.ConstantTimeCompare(k, tokenBytes) == 1 {
			matched = 1
		}
	}
	return matched == 1
}
