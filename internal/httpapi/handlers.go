package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/iyulab/shell-tunnel/internal/execengine"
	"github.com/iyulab/shell-tunnel/internal/store"
)

// API wires the Session Store and Execution Engine to the HTTP routes spec
// §6 names. It has no state of its own beyond those two collaborators.
type API struct {
	store  *store.Store
	engine *execengine.Engine
}

// New creates an API bound to a Store and Engine.
func New(s *store.Store, e *execengine.Engine) *API {
	return &API{store: s, engine: e}
}

// Register attaches every route this package serves to r.
func (a *API) Register(r gin.IRouter) {
	r.GET("/health", a.health)

	v1 := r.Group("/api/v1")
	v1.GET("/sessions", a.listSessions)
	v1.POST("/sessions", a.createSession)
	v1.GET("/sessions/:id", a.getSession)
	v1.DELETE("/sessions/:id", a.deleteSession)
	v1.POST("/sessions/:id/execute", a.executeInSession)
	v1.POST("/execute", a.executeOneShot)
}

func (a *API) health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (a *API) listSessions(c *gin.Context) {
	c.JSON(http.StatusOK, a.store.List())
}

func (a *API) createSession(c *gin.Context) {
	var req createSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}

	opts := store.CreateOptions{
		Shell: req.Shell,
		Cwd:   req.Cwd,
		Env:   req.Env,
	}
	if req.Cols > 0 && req.Rows > 0 {
		opts.Size.Cols = req.Cols
		opts.Size.Rows = req.Rows
	}

	id, err := a.store.Create(opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, createSessionResponse{ID: id.String()})
}

func (a *API) getSession(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid session id"})
		return
	}
	status, err := a.store.Status(id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "session not found"})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (a *API) deleteSession(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid session id"})
		return
	}
	if err := a.store.Delete(id); errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) executeInSession(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid session id"})
		return
	}
	sess, err := a.store.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "session not found"})
		return
	}

	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, err := a.engine.Execute(c.Request.Context(), sess, toCommandRequest(req))
	if writeExecError(c, err) {
		return
	}
	c.JSON(http.StatusOK, toExecuteResponse(result))
}

func (a *API) executeOneShot(c *gin.Context) {
	var req oneShotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	id, err := a.store.Create(store.CreateOptions{Shell: req.Shell, Cwd: req.Cwd})
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	defer a.store.Delete(id)

	sess, err := a.store.Get(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	result, err := a.engine.Execute(c.Request.Context(), sess, toCommandRequest(req.executeRequest))
	if writeExecError(c, err) {
		return
	}
	c.JSON(http.StatusOK, toExecuteResponse(result))
}

func toCommandRequest(req executeRequest) execengine.CommandRequest {
	cr := execengine.CommandRequest{Command: req.Command, Input: []byte(req.Input)}
	if req.TimeoutMs > 0 {
		cr.Timeout = time.Duration(req.TimeoutMs) * time.Millisecond
	}
	return cr
}

func toExecuteResponse(r execengine.CommandResult) executeResponse {
	return executeResponse{
		Success:    r.Success,
		ExitCode:   r.ExitCode,
		Output:     r.Output,
		DurationMs: r.DurationMs,
		TimedOut:   r.TimedOut,
	}
}

// writeExecError translates an Execute error into an HTTP response and
// reports whether one was written.
func writeExecError(c *gin.Context, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, execengine.ErrSessionBusy):
		c.JSON(http.StatusConflict, errorResponse{Error: "session busy"})
	case errors.Is(err, execengine.ErrInvalidCommand):
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid command"})
	case errors.Is(err, execengine.ErrSessionClosed):
		c.JSON(http.StatusGone, errorResponse{Error: "session closed"})
	default:
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	return true
}
