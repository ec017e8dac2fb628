// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

/*
Package metrics provides Prometheus metrics collection for the blog service.

All collectors are registered on the default registry through promauto and
exposed at /metrics in the Prometheus text format:

	curl http://localhost:3857/metrics

# Available Metrics

Recommendation Metrics:
  - recommend_rebuild_duration_seconds: Model rebuild duration (histogram)
  - recommend_rebuilds_total: Rebuild outcomes (counter)
    Labels: result (success, failure)
  - recommend_model_documents, recommend_model_vocabulary_size: Shape of the
    current bundle (gauges)
  - recommend_model_build_timestamp_seconds, recommend_model_version: Identity
    of the current bundle (gauges)
  - recommend_queries_total: Queries by outcome (counter)
    Labels: operation (similar, recommendations), outcome
  - recommend_query_duration_seconds: Query latency (histogram)
  - recommend_fallbacks_total: Queries answered by recency (counter)
  - recommend_cache_hits_total, recommend_cache_misses_total: Similarity cache
  - recommend_model_events_total: Model lifecycle events (counter)
    Labels: direction (published, received), result

HTTP Metrics:
  - api_requests_total: Requests by method, route and status (counter)
  - api_request_duration_seconds: Request latency (histogram)
  - api_active_requests: In-flight requests (gauge)
  - api_rate_limit_hits_total: Rate limit rejections (counter)

Database Metrics:
  - duckdb_query_duration_seconds: Query latency by operation and table
  - duckdb_query_errors_total: Failed queries by error class

Circuit Breaker Metrics:
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total: Labels name, result (success, failure, rejected)
  - circuit_breaker_consecutive_failures
  - circuit_breaker_state_transitions_total

# Usage

	start := time.Now()
	posts, err := db.RecentPosts(ctx, 5, nil)
	metrics.RecordDBQuery("select", "posts", time.Since(start), err)

# Thread Safety

All collectors and helper functions are safe for concurrent use.
*/
package metrics
