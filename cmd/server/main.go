// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/marquee/internal/api"
	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/database"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/supervisor"
	"github.com/tomtom215/marquee/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server stopped with error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

// run wires the service and blocks until SIGINT or SIGTERM. Deferred
// closes run before main exits.
func run(cfg *config.Config) error {
	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("db_driver", cfg.Database.Driver).
		Str("db_path", cfg.Database.Path).
		Str("model_store", cfg.ModelStore.Backend).
		Bool("catalog_live", cfg.Catalog.URL != "").
		Msg("Starting Marquee recommendation service")
	metrics.SetAppInfo(version)

	db, err := database.New(&cfg.Database, logging.WithComponent("database"))
	if err != nil {
		return fmt.Errorf("initialize interaction store: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Str("driver", db.Driver()).Msg("Interaction store initialized")

	rec, err := initRecommend(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := rec.Models.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing model store")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := rec.newEngine(db)
	if err != nil {
		return err
	}
	if engine.Restore(ctx) {
		logging.Info().Int64("version", engine.Snapshot().Meta.Version).Msg("Restored persisted cluster model")
	} else {
		logging.Info().Msg("No persisted cluster model, serving fallback tiers until training succeeds")
	}

	handler := api.NewHandler(engine, db, api.HandlerOptions{
		RequestTimeout: cfg.Recommend.RequestTimeout,
		TrainTimeout:   cfg.Recommend.TrainTimeout,
	}, logging.WithComponent("api"))
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security)), logging.WithComponent("http"))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(logging.WithComponent("supervisor")), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	tree.AddDataService(services.NewTrainingService(engine, services.TrainingServiceConfig{
		TrainOnStartup: cfg.Recommend.TrainOnStartup,
		TrainInterval:  cfg.Recommend.TrainInterval,
		TrainTimeout:   cfg.Recommend.TrainTimeout,
	}, logging.WithComponent("training")))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	logging.Info().Msg("Starting supervisor tree...")
	err = tree.Serve(ctx)

	unstopped, _ := tree.UnstoppedServiceReport() //nolint:errcheck // report is best effort
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}
	return nil
}
