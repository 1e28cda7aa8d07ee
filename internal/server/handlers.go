package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/daemon-zero/dzman/internal/container"
	"github.com/daemon-zero/dzman/internal/manager"
	"github.com/daemon-zero/dzman/internal/ports"
	"github.com/daemon-zero/dzman/internal/registry"
	"github.com/daemon-zero/dzman/internal/slogger"
	"github.com/daemon-zero/dzman/internal/workspace"
)

// startRequest is the optional body for POST /api/start/:name.
type startRequest struct {
	Ephemeral bool `json:"ephemeral"`
	Port      int  `json:"port"`
}

// deleteRequest is the optional body for POST /api/delete/:name.
type deleteRequest struct {
	Data bool `json:"data"`
}

// configRequest is the body for POST /api/config/:name.
type configRequest struct {
	Env map[string]string `json:"env"`
}

// handleStatus is the liveness probe.
func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// handleList returns all instances with live status.
func (s *Server) handleList(c *gin.Context) {
	instances, err := s.mgr.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"instances": instances,
		"total":     len(instances),
	})
}

// handleStart creates the instance if needed and starts it.
func (s *Server) handleStart(c *gin.Context) {
	var req startRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
				"kind":  "invalid_request",
			})
			return
		}
	}

	inst, err := s.mgr.Start(c.Request.Context(), c.Param("name"), manager.StartOptions{
		Ephemeral: req.Ephemeral,
		Port:      req.Port,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, inst)
}

// handleRestart stops the instance and starts it again. An unknown name is
// created by the start leg.
func (s *Server) handleRestart(c *gin.Context) {
	var req startRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
				"kind":  "invalid_request",
			})
			return
		}
	}

	inst, err := s.mgr.Restart(c.Request.Context(), c.Param("name"), manager.StartOptions{
		Ephemeral: req.Ephemeral,
		Port:      req.Port,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, inst)
}

// handleStop gracefully stops an instance.
func (s *Server) handleStop(c *gin.Context) {
	name := c.Param("name")
	if err := s.mgr.Stop(c.Request.Context(), name); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"name": name, "status": "stopped"})
}

// handleDelete removes an instance, optionally purging its data.
func (s *Server) handleDelete(c *gin.Context) {
	var req deleteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
				"kind":  "invalid_request",
			})
			return
		}
	}

	name := c.Param("name")
	if err := s.mgr.Delete(c.Request.Context(), name, req.Data); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"name": name, "status": "deleted"})
}

// handleLogs streams container logs as plain text until the client
// disconnects. Request context cancellation stops the underlying engine
// process, so an abandoned stream never leaks.
func (s *Server) handleLogs(c *gin.Context) {
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("X-Content-Type-Options", "nosniff")

	w := &flushWriter{w: c.Writer}
	if err := s.mgr.Logs(c.Request.Context(), c.Param("name"), w); err != nil {
		if !w.wrote {
			writeError(c, err)
			return
		}
		// Headers already sent; the best we can do is log and close.
		slogger.L(c.Request.Context()).Warn("log stream ended", "error", err)
	}
}

// handleGetConfig returns the instance's .env configuration.
func (s *Server) handleGetConfig(c *gin.Context) {
	env, err := s.mgr.ReadEnv(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"env": env})
}

// handleSetConfig replaces the instance's .env configuration. Takes effect on
// the next start.
func (s *Server) handleSetConfig(c *gin.Context) {
	var req configRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"kind":  "invalid_request",
		})
		return
	}

	name := c.Param("name")
	if err := s.mgr.WriteEnv(c.Request.Context(), name, req.Env); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"name": name, "status": "updated"})
}

// writeError maps manager errors to HTTP status codes with a stable machine
// readable kind.
func writeError(c *gin.Context, err error) {
	status := http.StatusServiceUnavailable
	kind := "engine_error"

	switch {
	case errors.Is(err, manager.ErrNotFound) || errors.Is(err, registry.ErrNotFound) || errors.Is(err, container.ErrNotFound):
		status, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, manager.ErrAlreadyExists) || errors.Is(err, registry.ErrAlreadyExists) || errors.Is(err, container.ErrAlreadyExists):
		status, kind = http.StatusConflict, "already_exists"
	case errors.Is(err, workspace.ErrInvalidName):
		status, kind = http.StatusBadRequest, "invalid_name"
	case errors.Is(err, ports.ErrReserved):
		status, kind = http.StatusBadRequest, "invalid_port"
	case errors.Is(err, ports.ErrExhausted):
		kind = "port_exhausted"
	case errors.Is(err, container.ErrTimeout):
		kind = "timeout"
	}

	c.JSON(status, gin.H{
		"error": err.Error(),
		"kind":  kind,
	})
}

// flushWriter flushes after every write so log lines reach the client as they
// are produced, and records whether anything was written.
type flushWriter struct {
	w     gin.ResponseWriter
	wrote bool
}

func (f *flushWriter) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	if n > 0 {
		f.wrote = true
		f.w.Flush()
	}
	return n, err
}
