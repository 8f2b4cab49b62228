// Package main is the entry point for the tour finder API server.
//
// It loads the configuration, builds the structured logger and metrics
// collector, loads the tour catalog, wires the upstream adapters and the
// ranking engine, and serves HTTP with graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"tourfinder/internal/api/handlers"
	"tourfinder/internal/cache"
	"tourfinder/internal/catalog"
	"tourfinder/internal/closures"
	"tourfinder/internal/config"
	"tourfinder/internal/core"
	"tourfinder/internal/external"
	"tourfinder/internal/observability"
	"tourfinder/internal/ranking"
	"tourfinder/internal/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("tourfinder API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	metrics, err := observability.NewCollector(nil)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	clock := types.RealClock{}
	advisor := closures.NewAdvisor()

	cat, err := catalog.Load(cfg.Catalog.Path, advisor, clock, logger)
	if err != nil {
		return fmt.Errorf("loading tour catalog: %w", err)
	}

	fetchers := buildFetchers(cfg, clock, metrics)

	engine := ranking.NewEngine(
		ranking.Config{
			MaxDriveHoursDefault: cfg.Search.MaxDriveHoursDefault,
			MinSlopeDefault:      cfg.Search.MinSlopeDefault,
			MaxSlopeDefault:      cfg.Search.MaxSlopeDefault,
			ClusterRadiusKm:      cfg.Search.ClusterRadiusKm,
			ObservationRadiusKm:  cfg.Search.ObservationRadiusKm,
			ObservationDays:      cfg.Search.ObservationDays,
			TimezoneOffset:       cfg.Search.TimezoneOffset,
		},
		cat,
		cache.NewSearchContext(metrics),
		fetchers,
		advisor,
		clock,
		logger,
		metrics,
	)

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.Metrics = metrics
	srv.HealthProbes = []core.HealthProbe{
		core.ProbeFunc{ProbeName: "catalog", Fn: func(ctx context.Context) error {
			if cat.Len() == 0 {
				return errors.New("catalog is empty")
			}
			return nil
		}},
	}

	toursHandler := handlers.NewToursHandler(engine, cat, logger)
	srv.APIRegistrars = append(srv.APIRegistrars, func(r chi.Router) {
		toursHandler.RegisterRoutes(r)
	})
	srv.MountRoutes()

	return runHTTPServer(srv, cfg, logger)
}

// buildFetchers wires the five upstream adapters against a shared HTTP client
// configuration.
func buildFetchers(cfg *config.Config, clock types.Clock, metrics *observability.Collector) ranking.Fetchers {
	httpClient := &http.Client{Timeout: cfg.Upstream.Timeout}
	policy := external.DefaultRetryPolicy()
	policy.MaxRetries = cfg.Upstream.MaxRetries
	ua := cfg.Upstream.UserAgent

	base := func(name string) *external.BaseClient {
		return external.NewBaseClient(httpClient, name, policy, ua)
	}

	return ranking.Fetchers{
		Weather:      external.NewWeatherClient(base("met"), cfg.Upstream.WeatherBaseURL, metrics),
		Avalanche:    external.NewAvalancheClient(base("varsom"), cfg.Upstream.AvalancheBaseURL, clock, metrics),
		Routes:       external.NewRouteClient(base("osrm"), cfg.Upstream.RoutingBaseURL, metrics),
		Daylight:     external.NewDaylightClient(base("sunrise"), cfg.Upstream.DaylightBaseURL, cfg.Search.TimezoneOffset, clock, metrics),
		Observations: external.NewObservationClient(base("regobs"), cfg.Upstream.ObservationBaseURL, clock, metrics),
	}
}

// runHTTPServer starts the server in standard HTTP mode with graceful shutdown.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger for the given level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
