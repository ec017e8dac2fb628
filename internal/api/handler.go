// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package api

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/inkpost/internal/recommend"
	"github.com/tomtom215/inkpost/internal/recommend/model"
)

// Recommender is the engine surface the handlers use. *recommend.Engine implements it.
type Recommender interface {
	SimilarPosts(ctx context.Context, id model.DocumentID, limit int) (*recommend.SimilarResult, error)
	RecommendationsFor(ctx context.Context, userID int64, limit int) ([]recommend.Post, error)
	Status(ctx context.Context) (recommend.Status, error)
	Rebuild(ctx context.Context) (*recommend.RebuildResult, error)
	RebuildIfStale(ctx context.Context) (*recommend.RebuildResult, bool, error)
	Config() *recommend.Config
}

// Pinger reports database reachability. *database.DB implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

var _ Recommender = (*recommend.Engine)(nil)

// HandlerConfig configures a Handler.
type HandlerConfig struct {
	// StoreBackend is reported by the status endpoint ("file" or "badger").
	StoreBackend string

	// Version is reported by the health endpoints.
	Version string

	// RebuildInterval is the minimum spacing of manual rebuilds. Zero disables the limit.
	RebuildInterval time.Duration

	// RebuildBurst is how many manual rebuilds may run back to back.
	RebuildBurst int

	// ReadyTimeout bounds the readiness database ping. Default: 2s.
	ReadyTimeout time.Duration
}

// Handler serves the recommendation and health endpoints.
type Handler struct {
	engine         Recommender
	db             Pinger
	config         HandlerConfig
	rebuildLimiter *rate.Limiter
	startTime      time.Time
}

// NewHandler creates a Handler. db may be nil, in which case readiness
// always succeeds.
func NewHandler(engine Recommender, db Pinger, cfg HandlerConfig) *Handler {
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = 2 * time.Second
	}
	if cfg.RebuildBurst < 1 {
		cfg.RebuildBurst = 1
	}

	limit := rate.Inf
	if cfg.RebuildInterval > 0 {
		limit = rate.Every(cfg.RebuildInterval)
	}

	return &Handler{
		engine:         engine,
		db:             db,
		config:         cfg,
		rebuildLimiter: rate.NewLimiter(limit, cfg.RebuildBurst),
		startTime:      time.Now(),
	}
}
