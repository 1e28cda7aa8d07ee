// Package server exposes the instance manager over a JSON web API.
//
// The API mirrors the CLI one-to-one: every route delegates to the same
// manager facade, so behavior and error semantics are identical between the
// two surfaces.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/daemon-zero/dzman/internal/manager"
	"github.com/daemon-zero/dzman/internal/slogger"
)

// shutdownTimeout bounds graceful shutdown on Run cancellation.
const shutdownTimeout = 5 * time.Second

// Server serves the dzman web API.
type Server struct {
	mgr    *manager.Manager
	listen string
	router *gin.Engine
}

// New creates a web API server for the given manager, listening on listen
// ("host:port").
func New(mgr *manager.Manager, listen string) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		mgr:    mgr,
		listen: listen,
	}
	s.router = s.setupRouter()
	return s
}

// setupRouter configures routes and middleware.
func (s *Server) setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(), gin.Recovery())

	api := router.Group("/api")
	{
		api.GET("/status", s.handleStatus)
		api.GET("/instances", s.handleList)
		api.POST("/start/:name", s.handleStart)
		api.POST("/restart/:name", s.handleRestart)
		api.POST("/stop/:name", s.handleStop)
		api.POST("/delete/:name", s.handleDelete)
		api.GET("/logs/:name", s.handleLogs)
		api.GET("/config/:name", s.handleGetConfig)
		api.POST("/config/:name", s.handleSetConfig)
	}

	return router
}

// Handler returns the underlying HTTP handler. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.listen,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts carry the logger but not the run context's
		// cancellation, so in-flight requests finish during shutdown.
		BaseContext: func(net.Listener) context.Context {
			return slogger.WithLogger(context.Background(), slogger.L(ctx))
		},
	}

	errCh := make(chan error, 1)
	go func() {
		slogger.L(ctx).Info("web API listening", "addr", s.listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
