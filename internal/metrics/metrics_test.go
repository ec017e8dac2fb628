// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package metrics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordDBQuery(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		err       error
		wantClass string
	}{
		{name: "success", operation: "select_ok"},
		{name: "canceled", operation: "select_canceled", err: fmt.Errorf("query: %w", context.Canceled), wantClass: "canceled"},
		{name: "deadline", operation: "select_deadline", err: context.DeadlineExceeded, wantClass: "timeout"},
		{name: "closed", operation: "select_closed", err: errors.New("sql: database is closed"), wantClass: "closed"},
		{name: "constraint", operation: "insert_dup", err: errors.New("Constraint Error: duplicate key"), wantClass: "constraint"},
		{name: "other", operation: "select_other", err: errors.New("boom"), wantClass: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordDBQuery(tt.operation, "posts", 5*time.Millisecond, tt.err)

			if tt.err == nil {
				return
			}
			got := testutil.ToFloat64(DBQueryErrors.WithLabelValues(tt.operation, "posts", tt.wantClass))
			if got != 1 {
				t.Errorf("duckdb_query_errors_total{error_type=%q} = %v, want 1", tt.wantClass, got)
			}
		})
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/test/route", "200"))

	RecordAPIRequest("GET", "/test/route", 200, 15*time.Millisecond)
	RecordAPIRequest("GET", "/test/route", 200, 25*time.Millisecond)

	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/test/route", "200"))
	if after-before != 2 {
		t.Errorf("api_requests_total delta = %v, want 2", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)

	TrackActiveRequest(true)
	TrackActiveRequest(true)
	TrackActiveRequest(false)

	if got := testutil.ToFloat64(APIActiveRequests) - before; got != 1 {
		t.Errorf("api_active_requests delta = %v, want 1", got)
	}
	TrackActiveRequest(false)
}

func TestRecordRebuild(t *testing.T) {
	builtAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("success updates gauges", func(t *testing.T) {
		before := testutil.ToFloat64(RebuildsTotal.WithLabelValues("success"))

		RecordRebuild(2*time.Second, ModelSnapshot{Version: 7, Documents: 120, VocabularySize: 3400, BuiltAt: builtAt}, nil)

		if got := testutil.ToFloat64(RebuildsTotal.WithLabelValues("success")) - before; got != 1 {
			t.Errorf("success delta = %v, want 1", got)
		}
		if got := testutil.ToFloat64(ModelDocuments); got != 120 {
			t.Errorf("recommend_model_documents = %v, want 120", got)
		}
		if got := testutil.ToFloat64(ModelVocabularySize); got != 3400 {
			t.Errorf("recommend_model_vocabulary_size = %v, want 3400", got)
		}
		if got := testutil.ToFloat64(ModelVersion); got != 7 {
			t.Errorf("recommend_model_version = %v, want 7", got)
		}
		if got := testutil.ToFloat64(ModelBuildTimestamp); got != float64(builtAt.Unix()) {
			t.Errorf("recommend_model_build_timestamp_seconds = %v, want %d", got, builtAt.Unix())
		}
	})

	t.Run("failure keeps gauges", func(t *testing.T) {
		before := testutil.ToFloat64(RebuildsTotal.WithLabelValues("failure"))

		RecordRebuild(time.Second, ModelSnapshot{Documents: 1}, errors.New("fit failed"))

		if got := testutil.ToFloat64(RebuildsTotal.WithLabelValues("failure")) - before; got != 1 {
			t.Errorf("failure delta = %v, want 1", got)
		}
		if got := testutil.ToFloat64(ModelDocuments); got != 120 {
			t.Errorf("recommend_model_documents = %v, want 120 after failed rebuild", got)
		}
	})
}

func TestRecordRecommendQuery(t *testing.T) {
	ok := testutil.ToFloat64(RecommendQueries.WithLabelValues("similar", "success"))
	failed := testutil.ToFloat64(RecommendQueries.WithLabelValues("similar", "error"))

	RecordRecommendQuery("similar", time.Millisecond, nil)
	RecordRecommendQuery("similar", time.Millisecond, errors.New("db down"))

	if got := testutil.ToFloat64(RecommendQueries.WithLabelValues("similar", "success")) - ok; got != 1 {
		t.Errorf("success delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(RecommendQueries.WithLabelValues("similar", "error")) - failed; got != 1 {
		t.Errorf("error delta = %v, want 1", got)
	}
}

func TestRecordCacheAndFallback(t *testing.T) {
	hits := testutil.ToFloat64(RecommendCacheHits)
	misses := testutil.ToFloat64(RecommendCacheMisses)
	fallbacks := testutil.ToFloat64(RecommendFallbacks.WithLabelValues("recommendations"))

	RecordCacheHit()
	RecordCacheMiss()
	RecordCacheMiss()
	RecordFallback("recommendations")

	if got := testutil.ToFloat64(RecommendCacheHits) - hits; got != 1 {
		t.Errorf("cache hits delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(RecommendCacheMisses) - misses; got != 2 {
		t.Errorf("cache misses delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(RecommendFallbacks.WithLabelValues("recommendations")) - fallbacks; got != 1 {
		t.Errorf("fallbacks delta = %v, want 1", got)
	}
}

func TestRecordModelEvent(t *testing.T) {
	RecordModelEvent("published", nil)
	RecordModelEvent("received", errors.New("bad payload"))

	m := &dto.Metric{}
	if err := ModelEvents.WithLabelValues("received", "failure").Write(m); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if m.GetCounter().GetValue() < 1 {
		t.Errorf("received/failure = %v, want >= 1", m.GetCounter().GetValue())
	}
}

func TestRebuildDurationHistogram(t *testing.T) {
	RecordRebuild(300*time.Millisecond, ModelSnapshot{}, errors.New("x"))

	m := &dto.Metric{}
	if err := RebuildDuration.Write(m); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if m.GetHistogram().GetSampleCount() == 0 {
		t.Error("recommend_rebuild_duration_seconds has no samples")
	}
}

func TestConcurrentRecording(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			RecordRecommendQuery("recommendations", time.Millisecond, nil)
			RecordCacheMiss()
			RecordAPIRequest("GET", "/concurrent", 200, time.Millisecond)
		}()
	}
	wg.Wait()
}

func TestMetricGathering(t *testing.T) {
	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Fatalf("GatherAndLint() error = %v", err)
	}
	for _, p := range problems {
		t.Logf("lint: %s: %s", p.Metric, p.Text)
	}
}
