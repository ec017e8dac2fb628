// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/inkpost/internal/logging"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewTestLogger(&buf)

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(AccessLog(logger, AccessLogConfig{SlowThreshold: 20 * time.Millisecond, SkipPaths: []string{"/health/live"}}))
	r.Get("/ok/{id}", func(w http.ResponseWriter, r *http.Request) {
		logging.Ctx(r.Context()).Info().Msg("inside handler")
		_, _ = w.Write([]byte("hello"))
	})
	r.Get("/boom", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusInternalServerError) })
	r.Get("/bad", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadRequest) })
	r.Get("/slow", func(http.ResponseWriter, *http.Request) { time.Sleep(40 * time.Millisecond) })
	r.Get("/health/live", func(http.ResponseWriter, *http.Request) {})

	tests := []struct {
		path      string
		wantLevel string
		wantLines int
	}{
		{path: "/ok/7", wantLevel: "info", wantLines: 2},
		{path: "/boom", wantLevel: "error", wantLines: 1},
		{path: "/bad", wantLevel: "warn", wantLines: 1},
		{path: "/slow", wantLevel: "warn", wantLines: 1},
		{path: "/health/live", wantLines: 0},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			buf.Reset()
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			lines := decodeLines(t, &buf)
			if len(lines) != tt.wantLines {
				t.Fatalf("got %d log lines, want %d: %s", len(lines), tt.wantLines, buf.String())
			}
			if tt.wantLines == 0 {
				return
			}

			access := lines[len(lines)-1]
			if access["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", access["level"], tt.wantLevel)
			}
			if access["path"] != tt.path {
				t.Errorf("path = %v, want %s", access["path"], tt.path)
			}
			if id, _ := access["request_id"].(string); id == "" {
				t.Error("access line is missing request_id")
			}
		})
	}
}

func TestAccessLog_HandlerLoggerCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(AccessLog(logging.NewTestLogger(&buf), AccessLogConfig{}))
	r.Get("/x", func(_ http.ResponseWriter, r *http.Request) {
		logging.Ctx(r.Context()).Info().Msg("inside handler")
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	r.ServeHTTP(httptest.NewRecorder(), req)

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0]["message"] != "inside handler" || lines[0]["request_id"] != "req-42" {
		t.Errorf("handler line = %v", lines[0])
	}
	if lines[1]["route"] != "/x" {
		t.Errorf("route = %v, want /x", lines[1]["route"])
	}
}
