// Package middleware provides Gin HTTP middleware shared across the shell
// gateway: CORS, bearer-token authentication, and rate limiting (a
// process-wide ceiling plus an optional per-IP limiter).
//
// Example Usage:
//
//	corsCfg := middleware.DefaultCORSConfig()
//	corsCfg.AllowOrigins = cfg.Security.CORSOrigins()
//	router.Use(middleware.CORS(corsCfg))
//	router.Use(middleware.Auth(middleware.AuthConfig{Enabled: cfg.Security.AuthEnabled, APIKeys: cfg.Security.APIKeys()}))
//	router.Use(middleware.GlobalRateLimit(middleware.RateLimitConfig{RequestsPerSecond: cfg.Security.GlobalRateLimitPerSec, Burst: cfg.Security.GlobalRateLimitPerSec * 2}))
//	router.Use(middleware.RateLimit(middleware.FromWindow(cfg.Security.RateLimitRequests, cfg.Security.RateLimitWindowSecs)))
package middleware
