// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/tomtom215/inkpost/docs" // Import generated swagger docs
	"github.com/tomtom215/inkpost/internal/config"
	"github.com/tomtom215/inkpost/internal/logging"
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
		logging.Error().Err(err).Msg("Inkpost stopped with error")
		os.Exit(1)
	}
}

// run builds the application and serves until SIGINT or SIGTERM.
func run(cfg *config.Config) error {
	logger := logging.Logger()
	logger.Info().
		Str("version", version).
		Str("db_path", cfg.Database.Path).
		Str("store_backend", cfg.Recommend.StoreBackend).
		Str("events_backend", cfg.Events.Backend).
		Msg("Starting Inkpost with supervisor tree")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error().Err(err).Msg("Error during shutdown")
		}
	}()

	logger.Info().Str("addr", a.server.Addr).Msg("Starting supervisor tree...")
	errCh := a.tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logger.Info().Msg("Received shutdown signal, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	stop()

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := a.tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logger.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logger.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logger.Info().Msg("Inkpost stopped gracefully")
	return nil
}
