// Package main is the entry point for the formloom server.
// It wires all dependencies together and starts the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/formloom/formloom/internal/builder"
	"github.com/formloom/formloom/internal/catalog"
	"github.com/formloom/formloom/internal/config"
	"github.com/formloom/formloom/internal/notify"
	"github.com/formloom/formloom/internal/observability"
	"github.com/formloom/formloom/internal/store"
	"github.com/formloom/formloom/internal/submission"
	"github.com/formloom/formloom/internal/transport"
)

// Build-time variables set via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc1234"
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Step 1: Parse CLI flags.
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	// Step 2: Load configuration.
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	// Step 3: Initialize telemetry (logger, tracer, metrics).
	observability.Version = version
	observability.Commit = commit

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	tracingShutdown, err := observability.InitTracing(ctx, cfg.Observability.Tracing, "formloom", version)
	if err != nil {
		logger.Error("tracing initialization failed", zap.Error(err))
		return 1
	}

	metrics := observability.InitMetrics(prometheus.DefaultRegisterer)

	// Step 4: Initialize persistence.
	st, storeCloser, err := buildStore(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("store initialization failed", zap.Error(err))
		return 1
	}
	st = store.WithMetrics(st, metrics)

	// Step 5: Build the domain components.
	editor := builder.NewEditor(st)

	var notifier notify.Notifier = notify.NopNotifier{}
	if len(cfg.Submissions.WebhookURLs) > 0 {
		notifier = notify.NewWebhookNotifier(cfg.Submissions.WebhookURLs, cfg.Submissions.WebhookTimeout, metrics, logger)
	}
	pipeline := submission.NewPipeline(st, notifier, metrics, logger)

	// Step 6: Build HTTP router.
	var authenticate func(http.Handler) http.Handler
	if cfg.Auth.Enabled {
		jwks := transport.NewJWKSClient(cfg.Auth.JWKSURL, cfg.Auth.JWKSCacheTTL)
		authenticate = transport.JWTAuthenticator(cfg.Auth, jwks)
	} else {
		logger.Warn("authentication disabled, builder API is open")
	}

	readinessChecks := observability.ReadinessChecks{
		CatalogLoaded: func() bool { return len(catalog.All()) > 0 },
		Store:         st,
	}

	router := transport.NewRouter(transport.Dependencies{
		Config:       cfg,
		Store:        st,
		Editor:       editor,
		Pipeline:     pipeline,
		Metrics:      metrics,
		Authenticate: authenticate,
		Health:       observability.HandleHealth(),
		Ready:        observability.HandleReady(readinessChecks),
		MetricsPage:  observability.Handler(),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Step 7: Start HTTP server.
	logger.Info("server started",
		zap.Int("port", cfg.Server.Port),
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("store_driver", cfg.Store.Driver),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info("shutdown initiated")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		return 1
	}

	// Graceful shutdown sequence.
	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Stop accepting new connections and drain in-flight requests.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// Close the store.
	if storeCloser != nil {
		storeCloser()
	}

	// Flush telemetry.
	if err := tracingShutdown(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return 0
}

// buildStore creates the form store based on config.
func buildStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (store.Store, func(), error) {
	switch cfg.Driver {
	case "memory":
		logger.Info("using in-memory store")
		return store.NewMemoryStore(), nil, nil

	case "sqlite", "":
		path := cfg.SQLitePath
		if path == "" {
			path = "formloom.sqlite"
		}
		s, err := store.OpenSQLite(path)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite store: %w", err)
		}
		logger.Info("using sqlite store", zap.String("path", path))
		return s, func() { _ = s.Close() }, nil

	case "postgres":
		dsn := os.Getenv(cfg.DSNEnv)
		if dsn == "" {
			return nil, nil, fmt.Errorf("postgres store: %s environment variable not set", cfg.DSNEnv)
		}

		poolCfg, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres store: parse DSN: %w", err)
		}
		if cfg.MaxOpenConns > 0 {
			poolCfg.MaxConns = int32(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			poolCfg.MinConns = int32(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
		}

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres store: connect: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres store: ping: %w", err)
		}

		logger.Info("using postgres store")
		return store.NewPgStore(pool), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported store driver: %q", cfg.Driver)
	}
}
