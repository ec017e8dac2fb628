// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package metrics

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// Recommendation Engine Metrics
var (
	RebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_rebuild_duration_seconds",
			Help:    "Duration of model rebuilds (extract, fit, save) in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	RebuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_rebuilds_total",
			Help: "Total number of model rebuilds",
		},
		[]string{"result"}, // result: "success", "failure"
	)

	ModelDocuments = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommend_model_documents",
			Help: "Number of documents in the current model bundle",
		},
	)

	ModelVocabularySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommend_model_vocabulary_size",
			Help: "Number of terms in the current model vocabulary",
		},
	)

	ModelBuildTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommend_model_build_timestamp_seconds",
			Help: "Unix timestamp of the current model build",
		},
	)

	ModelVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommend_model_version",
			Help: "Store version of the current model bundle",
		},
	)

	RecommendQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_queries_total",
			Help: "Total number of recommendation queries",
		},
		[]string{"operation", "outcome"}, // outcome: "success", "error"
	)

	RecommendQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_query_duration_seconds",
			Help:    "Duration of recommendation queries in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation"},
	)

	RecommendFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_fallbacks_total",
			Help: "Total number of queries answered by the recency fallback",
		},
		[]string{"operation"},
	)

	RecommendCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_cache_hits_total",
			Help: "Total number of similarity result cache hits",
		},
	)

	RecommendCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_cache_misses_total",
			Help: "Total number of similarity result cache misses",
		},
	)

	ModelEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_model_events_total",
			Help: "Total number of model lifecycle events",
		},
		[]string{"direction", "result"}, // direction: "published", "received"
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table, classifyError(err)).Inc()
	}
}

// classifyError maps an error to a low-cardinality label value.
func classifyError(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded), strings.Contains(msg, "timeout"):
		return "timeout"
	case strings.Contains(msg, "closed"):
		return "closed"
	case strings.Contains(msg, "constraint"):
		return "constraint"
	default:
		return "other"
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// ModelSnapshot carries the gauges describing a freshly built bundle.
type ModelSnapshot struct {
	Version        int
	Documents      int
	VocabularySize int
	BuiltAt        time.Time
}

// RecordRebuild records the outcome of a model rebuild. The model gauges
// are only updated on success.
func RecordRebuild(duration time.Duration, snapshot ModelSnapshot, err error) {
	RebuildDuration.Observe(duration.Seconds())
	if err != nil {
		RebuildsTotal.WithLabelValues("failure").Inc()
		return
	}
	RebuildsTotal.WithLabelValues("success").Inc()
	SetModelGauges(snapshot)
}

// SetModelGauges publishes the current bundle's shape.
func SetModelGauges(snapshot ModelSnapshot) {
	ModelVersion.Set(float64(snapshot.Version))
	ModelDocuments.Set(float64(snapshot.Documents))
	ModelVocabularySize.Set(float64(snapshot.VocabularySize))
	if !snapshot.BuiltAt.IsZero() {
		ModelBuildTimestamp.Set(float64(snapshot.BuiltAt.Unix()))
	}
}

// RecordRecommendQuery records a recommendation query
func RecordRecommendQuery(operation string, duration time.Duration, err error) {
	RecommendQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	RecommendQueries.WithLabelValues(operation, outcome).Inc()
}

// RecordFallback records a query answered from recency instead of the model
func RecordFallback(operation string) {
	RecommendFallbacks.WithLabelValues(operation).Inc()
}

// RecordCacheHit records a similarity cache hit
func RecordCacheHit() {
	RecommendCacheHits.Inc()
}

// RecordCacheMiss records a similarity cache miss
func RecordCacheMiss() {
	RecommendCacheMisses.Inc()
}

// RecordModelEvent records a published or received model lifecycle event
func RecordModelEvent(direction string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	ModelEvents.WithLabelValues(direction, result).Inc()
}
