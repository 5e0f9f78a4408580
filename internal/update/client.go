package update

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/iyulab/shell-tunnel/internal/logging"
	"github.com/iyulab/shell-tunnel/internal/metrics"
	"github.com/iyulab/shell-tunnel/internal/resilience"
)

// breakerName identifies the update-manifest circuit breaker in logs and
// the shelltunnel_circuit_breaker_state gauge.
const breakerName = "update-manifest"

// Client wraps resty with retry and circuit-breaker protection for the
// self-update collaborator's outbound calls to a release-manifest endpoint,
// mirroring the reference backend's providers/http/client pattern.
type Client struct {
	resty   *resty.Client
	breaker *resilience.Breaker
	mu      sync.RWMutex
}

// NewClient creates a Client configured with retry/backoff and a circuit
// breaker tolerant of flaky update servers — tripping only on sustained
// failure, never on a single bad response. m and log may be nil.
func NewClient(m *metrics.Metrics, log *logging.Logger) *Client {
	if log == nil {
		log = logging.NewDefault()
	}
	channelLog := log.WithChannel(breakerName)

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 30 * time.Second
	retryClient.Logger = nil

	restyClient := resty.New()
	restyClient.
		SetTimeout(15 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(30 * time.Second).
		SetHeader("User-Agent", "shell-tunnel-updater/1.0")
	restyClient.SetTransport(retryClient.HTTPClient.Transport)

	breaker := resilience.New(breakerName, resilience.Settings{
		MaxRequests: 2,
		Interval:    10 * time.Minute,
		Timeout:     5 * time.Minute,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to resilience.State) {
			channelLog.Warn("update channel breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if m != nil {
				m.SetBreakerState(name, to.Value())
			}
		},
	})

	return &Client{resty: restyClient, breaker: breaker}
}

// FetchManifest retrieves and decodes the release manifest at url, guarded
// by the circuit breaker.
func (c *Client) FetchManifest(ctx context.Context, url string) (Manifest, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		var m Manifest
		c.mu.RLock()
		client := c.resty
		c.mu.RUnlock()

		resp, err := client.R().SetContext(ctx).SetResult(&m).Get(url)
		if err != nil {
			return Manifest{}, fmt.Errorf("update: fetch manifest: %w", err)
		}
		if resp.IsError() {
			return Manifest{}, fmt.Errorf("update: manifest endpoint returned %s", resp.Status())
		}
		return m, nil
	})
	if err != nil {
		return Manifest{}, err
	}
	return result.(Manifest), nil
}
