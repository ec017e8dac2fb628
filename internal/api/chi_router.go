// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/inkpost/internal/middleware"
)

// RouterConfig configures the router.
type RouterConfig struct {
	// Middleware configures CORS and per-IP rate limiting. Nil uses the defaults.
	Middleware *ChiMiddlewareConfig

	// RequestTimeout bounds each /api/v1 read request. Zero disables it.
	RequestTimeout time.Duration

	// SlowRequestThreshold promotes slow requests to warn level in the access log.
	SlowRequestThreshold time.Duration
}

// Router wires the handlers into a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	config        RouterConfig
	logger        zerolog.Logger
}

// NewRouter creates a Router.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRouter(handler *Handler, cfg RouterConfig, logger zerolog.Logger) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(cfg.Middleware),
		config:        cfg,
		logger:        logger,
	}
}

// Setup builds the HTTP handler with all routes and middleware.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, in order.
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(router.logger, middleware.AccessLogConfig{
		SlowThreshold: router.config.SlowRequestThreshold,
		SkipPaths:     []string{"/health/live", "/metrics"},
	}))
	r.Use(middleware.PrometheusMetrics)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Resource not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed", nil)
	})

	// Health checks, scraping and API docs are exempt from the per-IP limit.
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})
	r.Handle("/metrics", promhttp.Handler())

	// Swagger UI, served from the docs package registered by cmd/server.
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())

		r.Group(func(r chi.Router) {
			if router.config.RequestTimeout > 0 {
				r.Use(chimiddleware.Timeout(router.config.RequestTimeout))
			}
			r.Get("/posts/{postID}/similar", router.handler.SimilarPosts)
			r.Get("/users/{userID}/recommendations", router.handler.Recommendations)
			r.Get("/recommendations/status", router.handler.ModelStatus)
		})

		// Bounded by the engine's rebuild timeout instead.
		r.Post("/recommendations/rebuild", router.handler.Rebuild)
	})

	return r
}
