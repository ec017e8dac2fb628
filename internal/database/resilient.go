// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/inkpost/internal/config"
	"github.com/tomtom215/inkpost/internal/logging"
	"github.com/tomtom215/inkpost/internal/metrics"
	"github.com/tomtom215/inkpost/internal/recommend"
	"github.com/tomtom215/inkpost/internal/recommend/model"
)

// ErrSourceUnavailable marks calls rejected by an open breaker.
var ErrSourceUnavailable = errors.New("document source unavailable")

// ResilientSource wraps a DocumentSource with circuit breaker protection.
// After FailureThreshold consecutive failures the breaker opens and calls fail
// fast until Timeout elapses, then up to MaxRequests trial requests are let through.
//
// The breaker runs on real time; tests drive it by failing the wrapped source.
type ResilientSource struct {
	source recommend.DocumentSource
	cb     *gobreaker.CircuitBreaker[any]
	name   string
}

var _ recommend.DocumentSource = (*ResilientSource)(nil)

// NewResilientSource wraps source in a breaker named name.
func NewResilientSource(source recommend.DocumentSource, name string, cfg config.BreakerConfig) *ResilientSource {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 3
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	threshold := cfg.FailureThreshold
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= threshold
			if trip {
				logging.Warn().
					Str("breaker", name).
					Uint32("consecutive_failures", counts.ConsecutiveFailures).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return trip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},

		// Caller cancellation says nothing about database health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &ResilientSource{source: source, cb: cb, name: name}
}

// State reports the breaker state as closed, half-open or open.
func (r *ResilientSource) State() string {
	return stateToString(r.cb.State())
}

// execute runs fn through the breaker and records the outcome.
func (r *ResilientSource) execute(fn func() (any, error)) (any, error) {
	result, err := r.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(r.name, "rejected").Inc()
			logging.Warn().Err(err).Str("breaker", r.name).Msg("[CIRCUIT BREAKER] Request rejected")
			return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(r.name, "failure").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(r.name).Set(float64(r.cb.Counts().ConsecutiveFailures))
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(r.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(r.name).Set(0)
	return result, nil
}

// castResult type-asserts a breaker result.
func castResult[T any](result any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// EligiblePosts calls through the breaker.
func (r *ResilientSource) EligiblePosts(ctx context.Context) ([]recommend.Post, error) {
	return castResult[[]recommend.Post](r.execute(func() (any, error) {
		return r.source.EligiblePosts(ctx)
	}))
}

// UserInteractionIDs calls through the breaker.
func (r *ResilientSource) UserInteractionIDs(ctx context.Context, userID int64) ([]model.DocumentID, error) {
	return castResult[[]model.DocumentID](r.execute(func() (any, error) {
		return r.source.UserInteractionIDs(ctx, userID)
	}))
}

// RecentPosts calls through the breaker.
func (r *ResilientSource) RecentPosts(ctx context.Context, limit int, exclude []model.DocumentID) ([]recommend.Post, error) {
	return castResult[[]recommend.Post](r.execute(func() (any, error) {
		return r.source.RecentPosts(ctx, limit, exclude)
	}))
}

// ResolvePosts calls through the breaker.
func (r *ResilientSource) ResolvePosts(ctx context.Context, ids []model.DocumentID) ([]recommend.Post, error) {
	return castResult[[]recommend.Post](r.execute(func() (any, error) {
		return r.source.ResolvePosts(ctx, ids)
	}))
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
