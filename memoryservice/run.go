// Package memoryservice wires configuration, storage, embeddings, search,
// and the HTTP server into the running service.
package memoryservice

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/esmlabs/extended-memory/internal/api"
	"github.com/esmlabs/extended-memory/internal/config"
	"github.com/esmlabs/extended-memory/internal/embeddings"
	"github.com/esmlabs/extended-memory/internal/health"
	"github.com/esmlabs/extended-memory/internal/metrics"
	"github.com/esmlabs/extended-memory/internal/platform/logger"
	"github.com/esmlabs/extended-memory/internal/search"
	"github.com/esmlabs/extended-memory/internal/services"
	"github.com/esmlabs/extended-memory/internal/store"
	"github.com/esmlabs/extended-memory/internal/store/postgres"
	"github.com/esmlabs/extended-memory/internal/store/sqlite"
)

// Run starts the extended-memory HTTP server and blocks until shutdown or
// error.
func Run() error {
	log := logger.New("extended-memory")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("failed to load configuration")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, db, err := newStore(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("store unavailable")
		return err
	}
	defer func() { _ = db.Close() }()

	gateway, err := embeddings.NewFromConfig(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("embedding provider misconfigured")
		return err
	}

	sims, err := search.NewSimilarityCache(cfg.SimilarityCacheSize)
	if err != nil {
		log.Error().Err(err).Msg("failed to build similarity cache")
		return err
	}
	defer sims.Close()

	searchMetrics := metrics.NewSearchMetrics(prometheus.DefaultRegisterer)
	searchSvc := search.NewService(st, gateway, sims, searchMetrics,
		time.Duration(cfg.SearchTimeoutSeconds)*time.Second, log)

	checker := startHealthChecker(ctx, cfg, log, st, gateway)

	router := api.NewRouter(api.Deps{
		Assistants: services.NewAssistantService(st, log),
		Memories:   services.NewMemoryService(st, gateway, log),
		Search:     searchSvc,
		Health:     checker,
		Log:        log,
	})
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	if err := waitUntilHealthy(ctx, cfg, checker); err != nil {
		log.Error().Err(err).Msg("startup health check failed")
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server forced to shutdown")
			return err
		}
		log.Info().Msg("server exited")
		return nil
	case err := <-errCh:
		log.Error().Err(err).Msg("HTTP server failed")
		return err
	}
}

// newStore opens the configured database, ensures the schema, and returns
// the store with its underlying handle for closing.
func newStore(ctx context.Context, cfg *config.Config) (store.Store, *sql.DB, error) {
	switch cfg.DBDriver {
	case "postgres":
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Bootstrap(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return postgres.NewWithDB(db), db, nil
	case "sqlite":
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := sqlite.Bootstrap(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return sqlite.NewWithDB(db), db, nil
	default:
		return nil, nil, fmt.Errorf("unsupported DB_DRIVER: %s", cfg.DBDriver)
	}
}

// startHealthChecker registers the store and, when configured, the embedding
// provider, then starts the probe loop.
func startHealthChecker(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store, gw *embeddings.Gateway) *health.Checker {
	checker := health.NewChecker(
		time.Duration(cfg.HealthIntervalSeconds)*time.Second,
		time.Duration(cfg.HealthProbeTimeoutSeconds)*time.Second,
		log,
	)
	if pinger, ok := st.(health.HealthPinger); ok {
		checker.Register("store", pinger)
	}
	if pinger, ok := gw.Provider().(health.HealthPinger); ok {
		checker.Register("embeddings", pinger)
	}
	checker.Start(ctx)
	return checker
}

// waitUntilHealthy blocks startup until all dependencies report healthy, with
// a window of twice the probe interval and at least a minute.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, checker *health.Checker) error {
	window := 2 * time.Duration(cfg.HealthIntervalSeconds) * time.Second
	if window < time.Minute {
		window = time.Minute
	}
	deadline := time.Now().Add(window)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if checker.Healthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("dependencies not healthy after %s", window)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
