// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

// Package main is the entry point for the Urbanytics BFF.
//
// The BFF sits between the web frontend and two upstreams: a PostgreSQL
// database holding the property sales dataset, and the backend service
// that owns writes. Reads are served from the database through an
// in-memory read-through cache; analytics charts are assembled by a
// fan-out orchestrator with per-chart caching; mutations are proxied to
// the backend behind a circuit breaker and invalidate the affected
// cache scopes on success.
//
// # Startup Order
//
//  1. Configuration: Koanf v2 layering (defaults, config.yaml, env vars)
//  2. Logging: zerolog, JSON or console per LOG_FORMAT
//  3. Database: pgx connection pool with health ping
//  4. Cache: in-memory TTL store with background janitor
//  5. Backend and ML clients: circuit breakers, optional rate limiter
//  6. Analytics orchestrator and HTTP handlers
//  7. Supervisor tree: cache gauge refresher and the HTTP server
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger a graceful shutdown: the server stops
// accepting connections, in-flight requests get the configured shutdown
// timeout to finish, then the cache and database pool are closed.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mendezluchoo/urbanytics/internal/analytics"
	"github.com/mendezluchoo/urbanytics/internal/api"
	"github.com/mendezluchoo/urbanytics/internal/backend"
	"github.com/mendezluchoo/urbanytics/internal/cache"
	"github.com/mendezluchoo/urbanytics/internal/config"
	"github.com/mendezluchoo/urbanytics/internal/database"
	"github.com/mendezluchoo/urbanytics/internal/logging"
	"github.com/mendezluchoo/urbanytics/internal/ml"
	"github.com/mendezluchoo/urbanytics/internal/supervisor"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("backend_url", cfg.Backend.URL).
		Msg("Starting Urbanytics BFF")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	logging.Info().Msg("Database pool initialized")

	store := cache.New(cfg.Cache.DefaultTTL, cfg.Cache.CleanupInterval)
	defer store.Close()
	logging.Info().
		Dur("default_ttl", cfg.Cache.DefaultTTL).
		Dur("cleanup_interval", cfg.Cache.CleanupInterval).
		Msg("Cache store initialized")

	backendClient := backend.NewClient(cfg.Backend)
	mlClient := ml.NewClient(cfg.ML)

	orchestrator := analytics.New(db, store, cfg.Cache.AnalyticsTTL, cfg.Cache.DashboardTTL)

	handler := api.NewHandler(db, orchestrator, backendClient, mlClient, store, cfg, version)
	router := api.NewRouter(handler, store, cfg)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)

	tree.AddMaintenanceService(supervisor.NewCacheGaugeService(store, 15*time.Second))
	tree.AddAPIService(supervisor.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server added to supervisor tree")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}
