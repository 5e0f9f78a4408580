package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/iyulab/shell-tunnel/internal/execengine"
	"github.com/iyulab/shell-tunnel/internal/shellkind"
	"github.com/iyulab/shell-tunnel/internal/store"
)

func newTestAPI(t *testing.T) (*gin.Engine, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := store.DefaultConfig()
	cfg.DefaultShell = shellkind.Sh
	s := store.New(cfg, nil, nil)
	t.Cleanup(s.Close)

	e := execengine.New(execengine.DefaultConfig(), nil, nil, nil)
	api := New(s, e)

	r := gin.New()
	api.Register(r)
	return r, s
}

func TestHealthEndpoint(t *testing.T) {
	r, _ := newTestAPI(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "OK", w.Body.String())
}

func TestCreateGetDeleteSessionLifecycle(t *testing.T) {
	r, _ := newTestAPI(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created createSessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.True(t, strings.HasPrefix(created.ID, "sess-"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+created.ID, nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/"+created.ID, nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+created.ID, nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestExecuteOneShotEcho(t *testing.T) {
	r, _ := newTestAPI(t)

	w := httptest.NewRecorder()
	body := `{"command":"echo one-shot-hello"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/execute", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp executeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotNil(t, resp.ExitCode)
	require.Equal(t, 0, *resp.ExitCode)
	require.True(t, strings.Contains(resp.Output, "one-shot-hello"))
}

func TestExecuteInSessionRejectsDangerousCommand(t *testing.T) {
	r, _ := newTestAPI(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	var created createSessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+created.ID+"/execute", strings.NewReader(`{"command":"rm -rf /"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSessionInvalidIDIsBadRequest(t *testing.T) {
	r, _ := newTestAPI(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/not-an-id", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
