// Package core provides the API chassis for the tour finder: a chi router
// with the cross-cutting middleware chain (recovery, request IDs, logging,
// compression, CORS) applied before requests reach domain handlers.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tourfinder/internal/config"
	"tourfinder/internal/observability"
)

// RouteRegistrar mounts a group of domain handler routes onto the router.
// The application entry point populates Server.APIRegistrars with these; the
// indirection avoids an import cycle between core and the handler packages.
type RouteRegistrar func(r chi.Router)

// Server encapsulates the HTTP surface dependencies, allowing injection
// during testing and distinct configuration per environment.
type Server struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.Collector

	// APIRegistrars mount the domain handlers under /api.
	APIRegistrars []RouteRegistrar

	// HealthProbes are checked by GET /health.
	HealthProbes []HealthProbe

	router *chi.Mux
}

// NewServer initializes the router and prepares the server for route
// mounting. The caller mounts routes via MountRoutes after construction;
// the separation lets tests customize registration.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config: cfg,
		Logger: logger,
		router: chi.NewRouter(),
	}, nil
}

// Handler returns the http.Handler for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown performs a graceful termination of server resources.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("server shutdown complete")
	return nil
}
