// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/inkpost/internal/database"
	"github.com/tomtom215/inkpost/internal/recommend"
	"github.com/tomtom215/inkpost/internal/validation"
)

// API error codes.
const (
	ErrCodeValidation       = validation.ErrorCode
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrCodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	ErrCodeUnavailable      = "SERVICE_UNAVAILABLE"
	ErrCodeTimeout          = "TIMEOUT"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// classifyError maps an engine error onto a status, code and client message.
func classifyError(err error) (status int, code, message string) {
	switch {
	case errors.Is(err, database.ErrSourceUnavailable),
		errors.Is(err, database.ErrDatabaseClosed),
		errors.Is(err, recommend.ErrUpstream):
		return http.StatusServiceUnavailable, ErrCodeUnavailable, "Post store is unavailable, retry later"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrCodeTimeout, "Request timed out"
	default:
		return http.StatusInternalServerError, ErrCodeInternal, "Internal server error"
	}
}

// respondEngineError writes err in the envelope with the status from classifyError.
func respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := classifyError(err)
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "30")
	}
	respondError(w, r, status, code, message, err)
}
