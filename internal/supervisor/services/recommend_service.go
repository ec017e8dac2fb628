// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/inkpost/internal/recommend"
)

// ModelRebuilder is the part of the recommendation engine the scheduler drives.
// Satisfied by *recommend.Engine.
type ModelRebuilder interface {
	RebuildIfStale(ctx context.Context) (*recommend.RebuildResult, bool, error)
}

// RecommendServiceConfig holds configuration for the rebuild scheduler.
type RecommendServiceConfig struct {
	// RebuildOnStartup rebuilds a missing or stale model when the service starts.
	RebuildOnStartup bool

	// CheckInterval is how often staleness is checked. Default: 1h.
	CheckInterval time.Duration
}

// RecommendService keeps the similarity model fresh under suture supervision.
// Each tick rebuilds only if the stored bundle has expired, so several
// instances sharing one store do not all refit on every tick.
type RecommendService struct {
	engine ModelRebuilder
	config RecommendServiceConfig
	logger zerolog.Logger
	name   string
}

// NewRecommendService creates a new rebuild scheduler.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRecommendService(engine ModelRebuilder, cfg RecommendServiceConfig, logger zerolog.Logger) *RecommendService {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = time.Hour
	}
	return &RecommendService{
		engine: engine,
		config: cfg,
		logger: logger.With().Str("service", "recommend").Logger(),
		name:   "recommend-service",
	}
}

// Serve implements suture.Service. Rebuild failures are logged and retried
// on the next tick; they never stop the service.
func (s *RecommendService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("rebuild_on_startup", s.config.RebuildOnStartup).
		Dur("check_interval", s.config.CheckInterval).
		Msg("recommendation service starting")

	if s.config.RebuildOnStartup {
		s.rebuildIfStale(ctx, "startup")
	}

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("recommendation service shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.rebuildIfStale(ctx, "schedule")
		}
	}
}

func (s *RecommendService) rebuildIfStale(ctx context.Context, trigger string) {
	result, ran, err := s.engine.RebuildIfStale(ctx)
	switch {
	case err != nil:
		s.logger.Warn().Err(err).Str("trigger", trigger).Msg("model rebuild failed, will retry on schedule")
	case !ran:
		s.logger.Debug().Str("trigger", trigger).Msg("model is fresh, skipping rebuild")
	default:
		s.logger.Info().
			Str("trigger", trigger).
			Int("version", result.Version).
			Int("documents", result.Documents).
			Int("vocabulary_size", result.VocabularySize).
			Dur("duration", result.Duration).
			Msg("model rebuilt")
	}
}

// String returns the service name for logging.
func (s *RecommendService) String() string {
	return s.name
}
