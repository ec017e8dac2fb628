// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/tomtom215/inkpost/internal/api"
	"github.com/tomtom215/inkpost/internal/config"
	"github.com/tomtom215/inkpost/internal/database"
	"github.com/tomtom215/inkpost/internal/events"
	"github.com/tomtom215/inkpost/internal/logging"
	"github.com/tomtom215/inkpost/internal/recommend"
	"github.com/tomtom215/inkpost/internal/recommend/storage"
	"github.com/tomtom215/inkpost/internal/supervisor"
	"github.com/tomtom215/inkpost/internal/supervisor/services"
)

// modelStore is a recommend.ModelStore that holds resources.
type modelStore interface {
	recommend.ModelStore
	Close() error
}

// app holds every long-lived component. Close releases them in reverse
// construction order.
type app struct {
	cfg    *config.Config
	db     *database.DB
	source *database.ResilientSource
	store  modelStore
	bus    *events.Bus
	engine *recommend.Engine
	server *http.Server
	tree   *supervisor.SupervisorTree
}

// newApp builds the application from configuration without starting anything.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			if cerr := a.Close(); cerr != nil {
				logger.Error().Err(cerr).Msg("Error releasing partially built application")
			}
		}
	}()

	a.db, err = database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	logger.Info().Str("path", cfg.Database.Path).Msg("Database initialized")

	if cfg.Database.SeedDemoData {
		n, err := a.db.SeedDemoData(ctx)
		if err != nil {
			return nil, fmt.Errorf("seed demo data: %w", err)
		}
		if n > 0 {
			logger.Info().Int("posts", n).Msg("Demo data seeded")
		}
	}

	a.source = database.NewResilientSource(a.db, "document-source", cfg.Database.Breaker)

	a.store, err = openModelStore(&cfg.Recommend, logger.With().Str("component", "model-store").Logger())
	if err != nil {
		return nil, err
	}

	a.bus, err = events.New(cfg.Events, logger.With().Str("component", "events").Logger())
	if err != nil {
		return nil, fmt.Errorf("initialize event bus: %w", err)
	}

	a.engine, err = recommend.NewEngine(
		engineConfig(&cfg.Recommend),
		a.source,
		a.store,
		logger.With().Str("component", "recommend").Logger(),
		recommend.WithNotifier(a.bus),
	)
	if err != nil {
		return nil, fmt.Errorf("create recommendation engine: %w", err)
	}

	handler := api.NewHandler(a.engine, a.db, api.HandlerConfig{
		StoreBackend:    cfg.Recommend.StoreBackend,
		Version:         version,
		RebuildInterval: cfg.Security.RebuildRateInterval,
		RebuildBurst:    cfg.Security.RebuildRateBurst,
	})
	router := api.NewRouter(handler, api.RouterConfig{
		Middleware:           api.ChiMiddlewareConfigFromSecurity(&cfg.Security),
		RequestTimeout:       cfg.Server.Timeout,
		SlowRequestThreshold: cfg.Server.Timeout / 2,
	}, logger.With().Str("component", "http").Logger())

	a.server = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           router.Setup(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	a.tree, err = supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create supervisor tree: %w", err)
	}

	a.tree.AddModelService(services.NewRecommendService(a.engine, services.RecommendServiceConfig{
		RebuildOnStartup: cfg.Recommend.TrainOnStartup,
		CheckInterval:    cfg.Recommend.TrainInterval,
	}, logger))
	a.tree.AddEventService(services.NewModelEventsService(a.bus,
		events.CacheInvalidationHandler(a.engine, logger.With().Str("component", "events").Logger())))
	a.tree.AddAPIService(services.NewHTTPServerService(a.server, cfg.Server.ShutdownTimeout))

	return a, nil
}

// Close releases the engine, bus, store and database. Safe on a partially built app.
func (a *app) Close() error {
	var errs []error
	if a.engine != nil {
		a.engine.Close()
	}
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close event bus: %w", err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close model store: %w", err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

// openModelStore opens the configured bundle store.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func openModelStore(cfg *config.RecommendConfig, logger zerolog.Logger) (modelStore, error) {
	opts := storage.Options{
		Dir:          cfg.ModelPath,
		Expiry:       cfg.ModelExpiry,
		KeepVersions: cfg.KeepVersions,
	}

	switch cfg.StoreBackend {
	case config.StoreBackendFile, "":
		s, err := storage.NewFileStore(opts, logger)
		if err != nil {
			return nil, fmt.Errorf("open file model store: %w", err)
		}
		return s, nil
	case config.StoreBackendBadger:
		s, err := storage.NewBadgerStore(opts, logger)
		if err != nil {
			return nil, fmt.Errorf("open badger model store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown model store backend %q", cfg.StoreBackend)
	}
}

// engineConfig maps the service configuration onto the engine's.
func engineConfig(cfg *config.RecommendConfig) *recommend.Config {
	ec := recommend.DefaultConfig()

	ec.Vectorizer.MaxFeatures = cfg.MaxFeatures
	ec.Vectorizer.MinDF = cfg.MinDF
	if cfg.NgramMax > 0 {
		ec.Vectorizer.NgramMax = cfg.NgramMax
	}
	ec.Vectorizer.StopWords = cfg.StopWords
	if cfg.StopWords == "none" {
		ec.Vectorizer.StopWords = ""
	}

	if cfg.DefaultSimilarLimit > 0 {
		ec.Limits.DefaultSimilar = cfg.DefaultSimilarLimit
	}
	if cfg.DefaultRecommendLimit > 0 {
		ec.Limits.DefaultRecommendations = cfg.DefaultRecommendLimit
	}
	if cfg.MaxLimit > 0 {
		ec.Limits.MaxLimit = cfg.MaxLimit
	}
	if cfg.SeedSimilar > 0 {
		ec.Limits.SeedSimilar = cfg.SeedSimilar
	}
	if cfg.FanOut > 0 {
		ec.Limits.FanOut = cfg.FanOut
	}

	ec.Cache.Enabled = cfg.CacheEnabled
	if cfg.CacheTTL > 0 {
		ec.Cache.TTL = cfg.CacheTTL
	}
	if cfg.CacheMaxEntries > 0 {
		ec.Cache.MaxEntries = cfg.CacheMaxEntries
	}
	if cfg.RebuildTimeout > 0 {
		ec.Rebuild.Timeout = cfg.RebuildTimeout
	}
	return ec
}
