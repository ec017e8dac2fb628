// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	_ "github.com/tomtom215/inkpost/docs"
	"github.com/tomtom215/inkpost/internal/config"
	"github.com/tomtom215/inkpost/internal/metrics"
	"github.com/tomtom215/inkpost/internal/middleware"
)

func TestRouter_NotFoundAndMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(newFakeEngine(), nil, HandlerConfig{})

	tests := []struct {
		method     string
		target     string
		wantStatus int
		wantCode   string
	}{
		{http.MethodGet, "/api/v1/nope", http.StatusNotFound, ErrCodeNotFound},
		{http.MethodGet, "/elsewhere", http.StatusNotFound, ErrCodeNotFound},
		{http.MethodGet, "/api/v1/recommendations/rebuild", http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed},
		{http.MethodDelete, "/api/v1/posts/1/similar", http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec, env := doRequest(t, handler, tt.method, tt.target)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if env.Status != "error" || env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("unexpected envelope: %+v", env)
			}
		})
	}
}

func TestRouter_RequestIDEchoed(t *testing.T) {
	handler := newTestHandler(newFakeEngine(), nil, HandlerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set(middleware.RequestIDHeader, "client-supplied-id")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get(middleware.RequestIDHeader); got != "client-supplied-id" {
		t.Errorf("X-Request-ID = %q, want client-supplied-id", got)
	}
	if !strings.Contains(rec.Body.String(), `"request_id":"client-supplied-id"`) {
		t.Errorf("body does not carry the request id: %s", rec.Body.String())
	}

	// Without one, the server generates it.
	_, env := doRequest(t, handler, http.MethodGet, "/health/live")
	if env.Metadata.RequestID == "" {
		t.Error("expected a generated request id in metadata")
	}
}

func TestRouter_RateLimit(t *testing.T) {
	h := NewHandler(newFakeEngine(), nil, HandlerConfig{})
	handler := NewRouter(h, RouterConfig{
		Middleware: &ChiMiddlewareConfig{RateLimitRequests: 2, RateLimitWindow: time.Minute},
	}, zerolog.Nop()).Setup()

	before := testutil.ToFloat64(metrics.APIRateLimitHits.WithLabelValues("/api/v1/*"))

	for i := 0; i < 2; i++ {
		rec, _ := doRequest(t, handler, http.MethodGet, "/api/v1/recommendations/status")
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	rec, env := doRequest(t, handler, http.MethodGet, "/api/v1/recommendations/status")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeRateLimited {
		t.Errorf("error = %+v, want %s", env.Error, ErrCodeRateLimited)
	}
	if after := testutil.ToFloat64(metrics.APIRateLimitHits.WithLabelValues("/api/v1/*")); after != before+1 {
		t.Errorf("rate limit hits = %v, want %v", after, before+1)
	}

	// Health checks are not limited.
	if rec, _ := doRequest(t, handler, http.MethodGet, "/health/live"); rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}

func TestRouter_Metrics(t *testing.T) {
	handler := newTestHandler(newFakeEngine(), nil, HandlerConfig{})

	// Generate at least one recorded request.
	doRequest(t, handler, http.MethodGet, "/api/v1/recommendations/status")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `api_requests_total{endpoint="/api/v1/recommendations/status"`) {
		t.Error("expected the status route in api_requests_total")
	}
}

func TestRouter_Swagger(t *testing.T) {
	handler := newTestHandler(newFakeEngine(), nil, HandlerConfig{})

	tests := []struct {
		target   string
		wantBody []string
	}{
		{
			target: "/swagger/doc.json",
			wantBody: []string{
				`"/api/v1/posts/{postID}/similar"`,
				`"/api/v1/users/{userID}/recommendations"`,
				`"/api/v1/recommendations/status"`,
				`"/api/v1/recommendations/rebuild"`,
				`"/health/ready"`,
				`"models.SimilarPostsResponse"`,
			},
		},
		{
			target:   "/swagger/index.html",
			wantBody: []string{"swagger-ui"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			for _, want := range tt.wantBody {
				if !strings.Contains(rec.Body.String(), want) {
					t.Errorf("body does not contain %s", want)
				}
			}
		})
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	h := NewHandler(newFakeEngine(), nil, HandlerConfig{})
	handler := NewRouter(h, RouterConfig{
		Middleware: ChiMiddlewareConfigFromSecurity(&config.SecurityConfig{
			CORSOrigins:       []string{"https://blog.example.com"},
			RateLimitDisabled: true,
		}),
	}, zerolog.Nop()).Setup()

	tests := []struct {
		origin string
		want   string
	}{
		{"https://blog.example.com", "https://blog.example.com"},
		{"https://evil.example.com", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/recommendations/status", nil)
		req.Header.Set("Origin", tt.origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("origin %s: Access-Control-Allow-Origin = %q, want %q", tt.origin, got, tt.want)
		}
	}
}

func TestChiMiddlewareConfigFromSecurity(t *testing.T) {
	mc := ChiMiddlewareConfigFromSecurity(&config.SecurityConfig{
		CORSOrigins:       []string{"*"},
		RateLimitReqs:     10,
		RateLimitWindow:   30 * time.Second,
		RateLimitDisabled: true,
	})
	if len(mc.CORSAllowedOrigins) != 1 || mc.CORSAllowedOrigins[0] != "*" {
		t.Errorf("CORSAllowedOrigins = %v", mc.CORSAllowedOrigins)
	}
	if mc.RateLimitRequests != 10 || mc.RateLimitWindow != 30*time.Second || !mc.RateLimitDisabled {
		t.Errorf("unexpected rate limit config: %+v", mc)
	}

	// Zero values keep the defaults.
	mc = ChiMiddlewareConfigFromSecurity(&config.SecurityConfig{})
	def := DefaultChiMiddlewareConfig()
	if mc.RateLimitRequests != def.RateLimitRequests || mc.RateLimitWindow != def.RateLimitWindow {
		t.Errorf("zero settings changed defaults: %+v", mc)
	}
}
