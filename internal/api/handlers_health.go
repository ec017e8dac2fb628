// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/inkpost/internal/logging"
	"github.com/tomtom215/inkpost/internal/models"
)

// HealthLive handles GET /health/live. It answers as long as the process serves HTTP.
//
// @Summary Liveness check
// @Description Always succeeds while the process serves HTTP.
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.HealthStatus} "Process is alive"
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondSuccess(w, r, http.StatusOK, &models.HealthStatus{
		Status:  "ok",
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
		Version: h.config.Version,
	}, start)
}

// HealthReady handles GET /health/ready. The service is ready when the
// database answers a ping. A missing model does not affect readiness since
// queries fall back to recent posts.
//
// @Summary Readiness check
// @Description Succeeds when the post database answers a ping.
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.HealthStatus} "Service is ready"
// @Failure 503 {object} models.APIResponse "Database is unreachable"
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), h.config.ReadyTimeout)
		err := h.db.Ping(ctx)
		cancel()
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Readiness check failed")
			respondErrorWithDetails(w, r, http.StatusServiceUnavailable, &models.APIError{
				Code:    ErrCodeUnavailable,
				Message: "Database is unreachable",
				Details: map[string]interface{}{"checks": map[string]string{"database": "unreachable"}},
			})
			return
		}
	}

	respondSuccess(w, r, http.StatusOK, &models.HealthStatus{
		Status:   "ok",
		Checks:   map[string]string{"database": "ok"},
		Uptime:   time.Since(h.startTime).Round(time.Second).String(),
		Version:  h.config.Version,
		Database: true,
	}, start)
}
