package core

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzhttp"
)

// defaultRequestTimeout caps how long one request may run. Searches fan out
// against several upstreams, so this sits well above a single upstream
// timeout.
const defaultRequestTimeout = 45 * time.Second

// MountRoutes registers the global middleware chain, the /api handler group,
// the health check and the Prometheus metrics endpoint.
func (s *Server) MountRoutes() {
	s.registerGlobalMiddleware()

	s.router.Route("/api", s.mountAPI)

	s.router.Get("/health", s.HandleHealth)
	if s.Metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	}
}

// registerGlobalMiddleware applies middleware in strict order:
//
//  1. Recoverer       - catches panics; outermost to catch all failures.
//  2. ContextTimeout  - soft deadline for slow upstream fan-outs.
//  3. RequestID       - correlation ID for tracing.
//  4. SecurityHeaders - present on every response.
//  5. RequestLogger   - structured request logging.
//  6. CORS            - browser access to the public API.
//  7. Gzip            - response compression; ranked result lists get large.
func (s *Server) registerGlobalMiddleware() {
	s.router.Use(s.Recoverer)
	s.router.Use(ContextTimeoutMiddleware(defaultRequestTimeout))
	s.router.Use(RequestIDMiddleware)
	s.router.Use(s.SecurityHeadersMiddleware)
	s.router.Use(RequestLogger(s.Logger))
	s.router.Use(NewCORSMiddleware())
	s.router.Use(GzipMiddleware)
}

// mountAPI registers the domain handler routes populated by the entry point.
func (s *Server) mountAPI(r chi.Router) {
	for _, registrar := range s.APIRegistrars {
		registrar(r)
	}
}

// GzipMiddleware compresses responses for clients that accept it.
func GzipMiddleware(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}
