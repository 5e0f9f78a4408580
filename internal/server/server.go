// Package server assembles the shell gateway's collaborators — the
// Session Store, Execution Engine, HTTP and WebSocket APIs, metrics,
// tracing, and the self-update checker — into a single runnable process.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/iyulab/shell-tunnel/internal/config"
	"github.com/iyulab/shell-tunnel/internal/execengine"
	"github.com/iyulab/shell-tunnel/internal/httpapi"
	"github.com/iyulab/shell-tunnel/internal/logging"
	"github.com/iyulab/shell-tunnel/internal/metrics"
	"github.com/iyulab/shell-tunnel/internal/middleware"
	"github.com/iyulab/shell-tunnel/internal/store"
	"github.com/iyulab/shell-tunnel/internal/tracing"
	"github.com/iyulab/shell-tunnel/internal/update"
	"github.com/iyulab/shell-tunnel/internal/wsapi"
)

// Version is the build version, overridable at link time via
// -ldflags "-X github.com/iyulab/shell-tunnel/internal/server.Version=...".
var Version = "dev"

// drainGrace bounds how long Shutdown waits for in-flight commands to
// finish naturally before the underlying PTYs are killed.
const drainGrace = 5 * time.Second

// Server wires every collaborator together behind a single gin.Engine and
// owns the process's graceful shutdown sequence.
type Server struct {
	cfg     *config.Config
	router  *gin.Engine
	http    *http.Server
	store   *store.Store
	engine  *execengine.Engine
	updater *update.Checker
	metrics *metrics.Metrics
	tracer  *tracing.Tracer
	log     *logging.Logger
}

// New builds a Server from configuration. It does not start listening;
// call Run for that.
func New(cfg *config.Config) (*Server, error) {
	logCfg := logging.Config{Level: cfg.Logging.Level, Development: cfg.Logging.Dev, OutputPaths: []string{"stdout"}}
	log, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("server: build logger: %w", err)
	}

	m := metrics.New()
	tracer := tracing.New("shell-tunnel", log.Logger)

	storeCfg := store.DefaultConfig()
	storeCfg.IdleTTL = time.Duration(cfg.Session.IdleTTLSecs) * time.Second
	sessionStore := store.New(storeCfg, m, log)

	engineCfg := execengine.DefaultConfig()
	engineCfg.DefaultTimeout = time.Duration(cfg.Session.DefaultTimeoutMs) * time.Millisecond
	engineCfg.MaxCommandBytes = cfg.Session.MaxCommandBytes
	engine := execengine.New(engineCfg, m, tracer, log)

	updateCfg := update.DefaultConfig()
	updateCfg.CurrentVersion = Version
	updater := update.NewChecker(updateCfg, m, log)

	if cfg.Logging.Dev {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(metrics.Middleware(m))
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.Security.CORSOrigins()
	router.Use(middleware.CORS(corsCfg))
	router.Use(middleware.Auth(middleware.AuthConfig{
		Enabled: cfg.Security.AuthEnabled,
		APIKeys: cfg.Security.APIKeys(),
	}))
	// GlobalRateLimit is an always-on process-wide ceiling, ahead of the
	// optional per-IP limiter below, so a burst spread across many source
	// IPs can't still overwhelm the session engine.
	router.Use(middleware.GlobalRateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.Security.GlobalRateLimitPerSec,
		Burst:             cfg.Security.GlobalRateLimitPerSec * 2,
	}))
	if cfg.Security.RateLimitEnabled {
		router.Use(middleware.RateLimit(middleware.FromWindow(cfg.Security.RateLimitRequests, cfg.Security.RateLimitWindowSecs)))
	}

	httpapi.New(sessionStore, engine).Register(router)
	wsapi.New(sessionStore, m, log).Register(router)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version": Version,
			"update":  updater.Status(),
		})
	})

	s := &Server{
		cfg:     cfg,
		router:  router,
		store:   sessionStore,
		engine:  engine,
		updater: updater,
		metrics: m,
		tracer:  tracer,
		log:     log,
	}
	return s, nil
}

// Run starts the self-update checker and blocks serving HTTP until the
// listener fails or is shut down.
func (s *Server) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.updater.Start(ctx)

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.http = &http.Server{Addr: addr, Handler: s.router}
	s.log.Info("listening", zap.String("addr", addr))

	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown performs the gateway's shutdown sequence: stop accepting new
// connections, mark every Session Closing, then release all resources. When
// cfg.Server.GracefulShutdown is set (the default), in-flight commands are
// given drainGrace to finish naturally before their PTYs are killed;
// otherwise that wait is skipped and every PTY kill starts at once.
func (s *Server) Shutdown(ctx context.Context) error {
	s.updater.Stop()

	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			s.log.Warn("http shutdown error", zap.Error(err))
		}
	}

	grace := drainGrace
	if !s.cfg.Server.GracefulShutdown {
		grace = 0
	}
	s.store.Shutdown(grace)

	return s.log.Sync()
}
