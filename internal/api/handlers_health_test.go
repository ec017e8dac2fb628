// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/tomtom215/inkpost/internal/models"
)

func TestHealthLive(t *testing.T) {
	handler := newTestHandler(newFakeEngine(), fakePinger{err: errors.New("down")}, HandlerConfig{Version: "1.2.3"})

	rec, env := doRequest(t, handler, http.MethodGet, "/health/live")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 even with the database down", rec.Code)
	}
	var data models.HealthStatus
	decodeData(t, env, &data)
	if data.Status != "ok" || data.Version != "1.2.3" {
		t.Errorf("unexpected health status: %+v", data)
	}
}

func TestHealthReady(t *testing.T) {
	tests := []struct {
		name       string
		db         Pinger
		wantStatus int
	}{
		{"database reachable", fakePinger{}, http.StatusOK},
		{"database down", fakePinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable},
		{"no database", nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestHandler(newFakeEngine(), tt.db, HandlerConfig{})

			rec, env := doRequest(t, handler, http.MethodGet, "/health/ready")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			if tt.wantStatus == http.StatusOK {
				var data models.HealthStatus
				decodeData(t, env, &data)
				if !data.Database || data.Checks["database"] != "ok" {
					t.Errorf("unexpected readiness: %+v", data)
				}
				return
			}
			if env.Error == nil || env.Error.Code != ErrCodeUnavailable {
				t.Errorf("error = %+v, want %s", env.Error, ErrCodeUnavailable)
			}
			if env.Error != nil && env.Error.Message == "connection refused" {
				t.Error("raw ping error must not reach the client")
			}
		})
	}
}
