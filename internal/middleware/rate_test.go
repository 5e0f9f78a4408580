package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func TestGlobalRateLimitAppliesAcrossClients(t *testing.T) {
	r := newRouter(GlobalRateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 1}))

	req1 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req1.RemoteAddr = "10.0.0.1:1111"
	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, req1)
	require.Equal(t, http.StatusOK, w1.Code)

	// A different source IP still trips the shared, process-wide bucket.
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req2.RemoteAddr = "10.0.0.2:2222"
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)
	require.Equal(t, http.StatusTooManyRequests, w2.Code)
}

func TestRateLimitIsPerIP(t *testing.T) {
	r := newRouter(RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 1}))

	req1 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req1.RemoteAddr = "10.0.0.1:1111"
	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, req1)
	require.Equal(t, http.StatusOK, w1.Code)

	req1b := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req1b.RemoteAddr = "10.0.0.1:1111"
	w1b := httptest.NewRecorder()
	r.ServeHTTP(w1b, req1b)
	require.Equal(t, http.StatusTooManyRequests, w1b.Code)

	// A second client IP has its own independent bucket.
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req2.RemoteAddr = "10.0.0.2:2222"
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)
	require.Equal(t, http.StatusOK, w2.Code)
}

func TestFromWindowDerivesRateAndBurst(t *testing.T) {
	cfg := FromWindow(120, 60)
	require.Equal(t, 2, cfg.RequestsPerSecond)
	require.Equal(t, 120, cfg.Burst)

	// Degenerate window still yields a usable, non-zero rate.
	cfg = FromWindow(5, 0)
	require.GreaterOrEqual(t, cfg.RequestsPerSecond, 1)
}
