// Package main is the entry point for the Sentinela risk-pipeline API
// server.
//
// It loads configuration, opens the model store backend, builds the
// geographic reference provider (with hot reload when enabled), wires the
// prediction service and HTTP handlers into the core chassis, and serves
// until a shutdown signal arrives.
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
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vaskiax/sentinela-aburr--ai/internal/api/handlers"
	"github.com/vaskiax/sentinela-aburr--ai/internal/config"
	"github.com/vaskiax/sentinela-aburr--ai/internal/core"
	"github.com/vaskiax/sentinela-aburr--ai/internal/geo"
	"github.com/vaskiax/sentinela-aburr--ai/internal/ingest"
	"github.com/vaskiax/sentinela-aburr--ai/internal/predictor"
	"github.com/vaskiax/sentinela-aburr--ai/internal/store"
	"github.com/vaskiax/sentinela-aburr--ai/internal/types"
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

	logger := newLogger(cfg)
	logger.Info("sentinela API starting",
		"environment", cfg.Environment,
		"port", cfg.Server.Port,
		"store_backend", cfg.Store.Backend,
	)

	// Root context cancelled on shutdown; background watchers hang off it.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// Geographic reference data, hot-reloaded on file change when enabled.
	districts, err := loadDistricts(cfg, logger)
	if err != nil {
		return err
	}
	geoProvider, err := geo.NewProvider(cfg.Reference.CombosCSVPath, districts, logger)
	if err != nil {
		return fmt.Errorf("loading reference data: %w", err)
	}
	if cfg.Reference.WatchReference {
		go func() {
			if err := geoProvider.Watch(ctx); err != nil {
				logger.Error("reference watcher stopped", "error", err)
			}
		}()
	}

	modelStore, err := openModelStore(ctx, cfg, srv)
	if err != nil {
		return err
	}

	service := predictor.New(geoProvider, modelStore, logger,
		predictor.WithSeed(cfg.Pipeline.EstimatorSeed))

	var feed handlers.FeedFetcher
	if cfg.Feed.BaseURL != "" {
		feed = ingest.NewFeedClient(cfg.Feed.BaseURL,
			&http.Client{Timeout: cfg.Feed.Timeout}, logger)
	}

	session := handlers.NewSession()
	pipelineHandler := handlers.NewPipelineHandler(
		service,
		feed,
		geoProvider,
		session,
		srv.Validator,
		cfg.Pipeline.MinRelevance,
		logger,
	)
	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars, func(r chi.Router) {
		pipelineHandler.RegisterRoutes(r)
	})

	srv.HealthProbes = append(srv.HealthProbes, core.ProbeFunc{
		ProbeName: "model_store",
		Fn: func(ctx context.Context) error {
			_, err := modelStore.Load(ctx)
			if err != nil && !types.IsModelNotFound(err) {
				return err
			}
			return nil
		},
	})

	srv.MountRoutes()

	return runHTTPServer(srv, cfg, logger, cancel)
}

// loadDistricts returns the district catalog, from the YAML override file
// when configured, otherwise the built-in defaults.
func loadDistricts(cfg *config.Config, logger *slog.Logger) ([]geo.District, error) {
	if cfg.Reference.DistrictsYAMLPath == "" {
		return geo.DefaultDistricts(), nil
	}
	districts, err := geo.LoadDistrictsYAML(cfg.Reference.DistrictsYAMLPath)
	if err != nil {
		return nil, fmt.Errorf("loading districts file: %w", err)
	}
	logger.Info("district catalog loaded from file",
		"path", cfg.Reference.DistrictsYAMLPath, "districts", len(districts))
	return districts, nil
}

// openModelStore opens the configured model-slot backend and registers its
// cleanup with the server.
func openModelStore(ctx context.Context, cfg *config.Config, srv *core.Server) (store.ModelStore, error) {
	switch cfg.Store.Backend {
	case config.StorePostgres:
		poolCfg, err := pgxpool.ParseConfig(cfg.Store.DatabaseURL.Unmask())
		if err != nil {
			return nil, fmt.Errorf("parsing database url: %w", err)
		}
		poolCfg.MaxConns = int32(cfg.Store.MaxConns)
		poolCfg.ConnConfig.ConnectTimeout = cfg.Store.AcquireTimeout

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		srv.OnShutdown(func() error {
			pool.Close()
			return nil
		})

		pg := store.NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrating model store: %w", err)
		}
		return pg, nil

	case config.StoreSQLite:
		s, err := store.OpenSQLiteStore(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		srv.OnShutdown(s.Close)
		return s, nil

	default:
		return store.NewMemoryStore(), nil
	}
}

// runHTTPServer starts the HTTP listener and blocks until a shutdown signal
// or a server error.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger, cancel context.CancelFunc) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
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

	// Stop background watchers before draining connections.
	cancel()

	logger.Info("initiating graceful shutdown")
	ctx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates the process-wide structured JSON logger.
func newLogger(cfg *config.Config) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})
	logger := slog.New(handler).With("service", cfg.Service)
	slog.SetDefault(logger)
	return logger
}
