// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package models

import (
	"time"
)

// APIResponse is the envelope of every HTTP response.
//
// Status is "success" with Data populated, or "error" with Error populated.
//
//	{
//	  "status": "success",
//	  "data": {"post_id": 12, "post_ids": [4, 9, 1]},
//	  "metadata": {"timestamp": "2026-03-01T09:00:00Z", "query_time_ms": 3, "request_id": "..."}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data,omitempty"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError carries a machine-readable code and a human-readable message.
//
// Codes:
//   - VALIDATION_ERROR: invalid path or query parameters
//   - NOT_FOUND: unknown route
//   - METHOD_NOT_ALLOWED: known route, wrong method
//   - RATE_LIMIT_EXCEEDED: too many requests, or a manual rebuild too soon
//   - SERVICE_UNAVAILABLE: the document store is failing or its breaker is open
//   - TIMEOUT: the request deadline passed
//   - INTERNAL_ERROR: anything else
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
