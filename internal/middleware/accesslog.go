// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/tomtom215/inkpost/internal/logging"
)

// AccessLogConfig configures AccessLog.
type AccessLogConfig struct {
	// SlowThreshold promotes requests slower than this to warn level. Zero disables.
	SlowThreshold time.Duration

	// SkipPaths are not logged at all, e.g. liveness checks.
	SkipPaths []string
}

// AccessLog writes one structured zerolog line per request and stores a
// request-scoped logger in the context for handlers (logging.Ctx).
// Server errors log at error level, client errors and slow requests at warn.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func AccessLog(logger zerolog.Logger, cfg AccessLogConfig) func(http.Handler) http.Handler {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// logging.Ctx adds the request and correlation ids on top.
			r = r.WithContext(logging.ContextWithLogger(r.Context(), logger))
			reqLogger := logging.Ctx(r.Context())

			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			duration := time.Since(start)

			status := statusOf(ww)
			var event *zerolog.Event
			switch {
			case status >= http.StatusInternalServerError:
				event = reqLogger.Error()
			case status >= http.StatusBadRequest:
				event = reqLogger.Warn()
			case cfg.SlowThreshold > 0 && duration > cfg.SlowThreshold:
				event = reqLogger.Warn().Bool("slow", true)
			default:
				event = reqLogger.Info()
			}

			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("route", routePattern(r)).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", duration).
				Str("remote_addr", r.RemoteAddr).
				Msg("HTTP request")
		})
	}
}
