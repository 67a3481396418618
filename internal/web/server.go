// Package web exposes the analysis engine over a local HTTP API: scan
// control with live progress events, category listings, duplicate groups,
// similarity search and cache statistics.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mholecy/photo-triage/internal/categories"
	"github.com/mholecy/photo-triage/internal/duplicates"
	"github.com/mholecy/photo-triage/internal/photos"
	"github.com/mholecy/photo-triage/internal/scan"
	"github.com/mholecy/photo-triage/internal/store"
)

// Server is the HTTP front of the analysis engine.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	logger     *slog.Logger

	handlers *Handlers
}

// Handlers bundles the collaborators the API serves.
type Handlers struct {
	Orchestrator *scan.Orchestrator
	Cache        store.Writer
	Index        *categories.Index
	Clusterer    *duplicates.Clusterer
	Searcher     *store.Searcher
	People       photos.People
	Logger       *slog.Logger
}

// NewServer creates the web server and wires up routes and middleware.
func NewServer(host string, port int, h *Handlers, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:   r,
		logger:   logger,
		handlers: h,
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(5 * time.Minute))

	s.setupRoutes(h)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // long timeout for SSE
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start() error {
	s.logger.Info("web server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down web server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
