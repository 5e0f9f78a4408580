// Package config provides 12-factor configuration management for the shell
// gateway.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags in cmd/server can override environment values for local
// development.
//
// Configuration Sections:
//   - Server: HTTP host/port and graceful shutdown toggle
//   - Security: bearer-token allow-list, per-IP and global rate limits, CORS origins
//   - Logging: log level and development/production encoding
//   - Session: idle TTL, default command timeout, max command size
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("listening on %s:%d\n", cfg.Server.Host, cfg.Server.Port)
package config
