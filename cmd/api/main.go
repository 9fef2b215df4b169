// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Kurso HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/kurso/internal/api"
	"github.com/taibuivan/kurso/internal/asset"
	"github.com/taibuivan/kurso/internal/content"
	"github.com/taibuivan/kurso/internal/platform/config"
	"github.com/taibuivan/kurso/internal/platform/constants"
	"github.com/taibuivan/kurso/internal/platform/migration"
	pgstore "github.com/taibuivan/kurso/internal/platform/postgres"
	redisstore "github.com/taibuivan/kurso/internal/platform/redis"
	"github.com/taibuivan/kurso/internal/platform/sec"
	"github.com/taibuivan/kurso/internal/plugintype"
	"github.com/taibuivan/kurso/internal/publish"
	"github.com/taibuivan/kurso/internal/translate"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "kurso"))
	slog.SetDefault(log)

	log.Info("[Kurso] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "kurso"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Auth Service ───────────────────────────────────────────────────
	jwtSvc, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	// Repositories.
	contentRepository := content.NewRepository(pool)
	pluginRepository := plugintype.NewRepository(pool)
	assetRepository := asset.NewRepository(pool)
	assetStorage := asset.NewLocalStorage(cfg.AssetStorageRoot)

	// Build pipeline plumbing.
	layout := publish.Layout{Root: cfg.FrameworkRoot}
	toolRunner := publish.NewExecToolRunner(cfg.BuilderCommand, cfg.FrameworkRoot, log)
	invoker := publish.NewInvoker(layout, toolRunner, log)

	// Publish pipeline. It doubles as the rebuild trigger for menu
	// activation, so it is wired before the registry service.
	assembler := publish.NewAssembler(contentRepository)
	publishService := publish.NewService(
		assembler,
		publish.NewTracker(pluginRepository),
		publish.NewMaterializer(pluginRepository, layout, log),
		publish.NewExternalizer(assetRepository, assetStorage, log),
		invoker,
		publish.NewPackager(log),
		publish.NewJobStore(rdb),
		layout,
		log,
	)

	// Domain services. The plugin registry feeds menu defaults into content
	// creation; the asset service clones binaries for duplication.
	pluginService := plugintype.NewService(pluginRepository, contentRepository, publishService, log)
	creator := content.NewCreator(contentRepository, pluginService, log)
	assetService := asset.NewService(assetRepository, contentRepository, assetStorage, log)
	duplicator := content.NewDuplicator(contentRepository, creator, assetService, log)
	contentService := content.NewService(contentRepository, log)

	// Translation pipeline.
	translateClient := translate.NewHTTPClient(cfg.TranslateEndpoint, cfg.TranslateKey, rdb)
	translateService := translate.NewService(
		contentRepository, creator, assembler, toolRunner, layout, translateClient, assetService, log,
	)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:   liveness,
		Readiness:  readiness,
		Content:    content.NewHandler(contentService, duplicator),
		PluginType: plugintype.NewHandler(pluginService),
		Asset:      asset.NewHandler(assetService),
		Publish:    publish.NewHandler(publishService, layout),
		Translate:  translate.NewHandler(translateService),
	}

	server := api.NewServer(context.Background(), cfg, log, jwtSvc, handlers)

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
