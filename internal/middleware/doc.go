// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

/*
Package middleware provides the HTTP middleware shared by every route.

  - RequestID: assigns or propagates X-Request-ID and a correlation id
  - AccessLog: one zerolog line per request plus a request-scoped logger
  - PrometheusMetrics: request count, latency and in-flight gauge, labeled
    by chi route pattern

All three are plain func(http.Handler) http.Handler and are mounted with
chi's r.Use in this order:

	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(logger, middleware.AccessLogConfig{SkipPaths: []string{"/health/live"}}))
	r.Use(middleware.PrometheusMetrics)

Response status and size are captured with chi's WrapResponseWriter.
*/
package middleware
