// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

/*
Api is the entry point for the SLRHub HTTP API server.

The server is a federated literature-search aggregator backing systematic
literature reviews. It fans structured boolean queries out to external
bibliographic databases, normalizes their responses into a common record
shape, and persists selected results into per-review collections keyed by
DOI.

Usage:

	go run cmd/api/main.go

The flags/environment variables are:

	SERVER_PORT         Port to listen on (default: 8080)
	ENVIRONMENT         deployment environment (development, production)
	DATABASE_URL        Postgres connection string (required)
	REDIS_URL           Redis connection string (required)
	SPRINGER_API_KEY    Springer Nature credential (wrapper skipped if absent)
	ELSEVIER_API_KEY    Elsevier credential (wrapper skipped if absent)

Startup Sequence:

 1. Logger: Initialize structured JSON logging (slog).
 2. Config: Load and validate environment variables.
 3. Storage: Establish connections to Postgres and Redis.
 4. Migration: Run idempotent schema updates.
 5. Wiring: Inject dependencies into the registry, orchestrator and handlers.
 6. Server: Bind HTTP listener and handle graceful shutdown.

No business logic lives here. This file is strictly for orchestration and wiring.
*/
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

	"github.com/slrhub/slrhub/internal/api"
	"github.com/slrhub/slrhub/internal/federation"
	"github.com/slrhub/slrhub/internal/platform/config"
	"github.com/slrhub/slrhub/internal/platform/constants"
	"github.com/slrhub/slrhub/internal/platform/migration"
	pgstore "github.com/slrhub/slrhub/internal/platform/postgres"
	redisstore "github.com/slrhub/slrhub/internal/platform/redis"
	"github.com/slrhub/slrhub/internal/platform/sec"
	"github.com/slrhub/slrhub/internal/review"
	"github.com/slrhub/slrhub/internal/wrapper"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application_startup_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	// # 1. Logger
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries for trace correlation
	log := rawLog.With(slog.String("app", "slrhub"))
	slog.SetDefault(log)

	log.Info("[SLRHub] service_initializing")

	// # 2. Configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// Adjust log level if debug mode is explicitly enabled
	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "slrhub"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. A 30s deadline prevents the app from hanging.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// # 3. PostgreSQL
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// # 4. Redis
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer func() {
		log.Info("closing redis client")
		_ = rdb.Close()
	}()

	// # 5. Migrations
	if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// # 6. Identity
	verifier, err := sec.NewTokenVerifier(cfg.JWTPubKeyPath, constants.AuthIssuer)
	if err != nil {
		return fmt.Errorf("load token verifier: %w", err)
	}

	// # 7. Domain Wiring
	// Reviews and their result store.
	reviewRepo := review.NewPostgresRepository(pool)
	reviewService := review.NewService(reviewRepo, log)
	reviewHandler := review.NewHandler(reviewService)

	// Provider wrappers: one registry for the process, fresh instances
	// per federated call.
	executor := wrapper.NewExecutor(cfg.ProviderTimeout, log)
	registry := wrapper.NewRegistry(wrapper.EnvKeys(cfg.ProviderKeys()), executor, log)
	log.Info("wrapper_registry_ready", slog.Any("wrappers", registry.Names()))

	// Federated orchestrator with the Redis-backed dry-query cache.
	envelopeCache := federation.NewCache(rdb)
	orchestrator := federation.NewOrchestrator(registry, reviewRepo, envelopeCache, log)
	federationHandler := federation.NewHandler(orchestrator, reviewService)

	// Health probes.
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error { return pgstore.Ping(context.Background(), pool) },
		CheckCache:    func() error { return redisstore.Ping(context.Background(), rdb) },
	}, log)

	// # 8. HTTP Server
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, verifier, api.Handlers{
		Liveness:   liveness,
		Readiness:  readiness,
		Review:     reviewHandler,
		Federation: federationHandler,
	})

	// Run the listener in the background and watch for termination signals.
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-signalCh:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	}

	// # 9. Graceful Shutdown
	serverCancel()
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("service_stopped")
	return nil
}
