package update

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iyulab/shell-tunnel/internal/logging"
	"github.com/iyulab/shell-tunnel/internal/metrics"
)

// Manifest is the release-manifest shape polled from Config.ManifestURL.
type Manifest struct {
	Version     string `json:"version"`
	ReleasedAt  string `json:"released_at"`
	DownloadURL string `json:"download_url"`
	Notes       string `json:"notes"`
}

// Config controls the self-update checker. Disabled by default, per spec
// §1's framing of self-update as an external collaborator rather than a
// core concern.
type Config struct {
	Enabled       bool
	ManifestURL   string
	CheckInterval time.Duration
	CurrentVersion string
}

// DefaultConfig returns the checker's out-of-the-box tunables.
func DefaultConfig() Config {
	return Config{
		Enabled:       false,
		CheckInterval: 24 * time.Hour,
	}
}

// Checker periodically polls a release manifest and logs when a newer
// version is available. It never downloads or applies an update — that
// remains an operator action.
type Checker struct {
	cfg    Config
	client *Client
	log    *logging.Logger

	stop chan struct{}
	done chan struct{}
}

// NewChecker creates a Checker. It does nothing until Start is called. m
// may be nil.
func NewChecker(cfg Config, m *metrics.Metrics, log *logging.Logger) *Checker {
	if log == nil {
		log = logging.NewDefault()
	}
	return &Checker{
		cfg:    cfg,
		client: NewClient(m, log),
		log:    log.WithChannel(breakerName),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the background poll loop if the checker is enabled and
// configured with a manifest URL. It is a no-op otherwise.
func (c *Checker) Start(ctx context.Context) {
	if !c.cfg.Enabled || c.cfg.ManifestURL == "" {
		close(c.done)
		return
	}
	go c.loop(ctx)
}

func (c *Checker) loop(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.cfg.CheckInterval)
	defer ticker.Stop()

	c.checkOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case <-ticker.C:
			c.checkOnce(ctx)
		}
	}
}

func (c *Checker) checkOnce(ctx context.Context) {
	manifest, err := c.client.FetchManifest(ctx, c.cfg.ManifestURL)
	if err != nil {
		c.log.Warn("update check failed", zap.Error(err))
		return
	}
	if manifest.Version != "" && manifest.Version != c.cfg.CurrentVersion {
		c.log.Info("newer version available",
			zap.String("current", c.cfg.CurrentVersion),
			zap.String("available", manifest.Version),
			zap.String("download_url", manifest.DownloadURL),
		)
	}
}

// Stop halts the background poll loop and waits for it to exit.
func (c *Checker) Stop() {
	close(c.stop)
	<-c.done
}

// ChannelStatus summarizes the self-update checker for a version endpoint.
type ChannelStatus struct {
	Enabled        bool   `json:"enabled"`
	CurrentVersion string `json:"current_version"`
	CheckInterval  string `json:"check_interval,omitempty"`
}

// Status reports the checker's current configuration, for exposure on a
// build-version endpoint.
func (c *Checker) Status() ChannelStatus {
	st := ChannelStatus{Enabled: c.cfg.Enabled, CurrentVersion: c.cfg.CurrentVersion}
	if c.cfg.Enabled {
		st.CheckInterval = c.cfg.CheckInterval.String()
	}
	return st
}
