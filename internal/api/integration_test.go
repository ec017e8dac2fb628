// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package api

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/inkpost/internal/config"
	"github.com/tomtom215/inkpost/internal/database"
	"github.com/tomtom215/inkpost/internal/models"
	"github.com/tomtom215/inkpost/internal/recommend"
	"github.com/tomtom215/inkpost/internal/recommend/storage"
)

// TestIntegration_DemoBlog drives the API over an in-memory DuckDB with
// the demo corpus and a file model store.
func TestIntegration_DemoBlog(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping DuckDB integration test in short mode")
	}
	ctx := context.Background()

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "1GB"})
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.SeedDemoData(ctx); err != nil {
		t.Fatalf("SeedDemoData() error = %v", err)
	}

	store, err := storage.NewFileStore(storage.Options{Dir: t.TempDir(), KeepVersions: 2}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	engine, err := recommend.NewEngine(recommend.DefaultConfig(), db, store, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	t.Cleanup(engine.Close)

	handler := newTestHandler(engine, db, HandlerConfig{StoreBackend: config.StoreBackendFile})

	// Map titles to ids; the seed assigns them.
	all, err := db.RecentPosts(ctx, 100, nil)
	if err != nil {
		t.Fatalf("RecentPosts() error = %v", err)
	}
	ids := make(map[string]int64, len(all))
	for _, p := range all {
		ids[p.Title] = int64(p.ID)
	}
	starter := ids["Getting started with sourdough"]
	hydration := ids["Sourdough hydration explained"]
	if starter == 0 || hydration == 0 {
		t.Fatalf("demo posts missing: %v", ids)
	}

	t.Run("absent model falls back to recent posts", func(t *testing.T) {
		_, env := doRequest(t, handler, http.MethodGet, "/api/v1/recommendations/status")
		var st models.ModelStatus
		decodeData(t, env, &st)
		if st.State != string(recommend.StateAbsent) {
			t.Fatalf("state = %q, want absent", st.State)
		}

		_, env = doRequest(t, handler, http.MethodGet, "/api/v1/posts/"+itoa(starter)+"/similar")
		var sim models.SimilarPostsResponse
		decodeData(t, env, &sim)
		if !sim.Fallback || len(sim.Posts) != 3 {
			t.Fatalf("expected 3 fallback posts, got %+v", sim)
		}
		for _, p := range sim.Posts {
			if p.ID == starter {
				t.Error("fallback must exclude the queried post")
			}
		}
	})

	t.Run("rebuild", func(t *testing.T) {
		rec, env := doRequest(t, handler, http.MethodPost, "/api/v1/recommendations/rebuild")
		if rec.Code != http.StatusAccepted {
			t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
		}
		var res models.RebuildResponse
		decodeData(t, env, &res)
		// The draft is not eligible.
		if !res.Rebuilt || res.Version != 1 || res.Documents != 11 {
			t.Errorf("unexpected rebuild: %+v", res)
		}

		// Fresh now, a second non-forced request does nothing.
		rec, env = doRequest(t, handler, http.MethodPost, "/api/v1/recommendations/rebuild")
		if rec.Code != http.StatusOK {
			t.Fatalf("second rebuild status = %d, want 200", rec.Code)
		}
		decodeData(t, env, &res)
		if res.Rebuilt {
			t.Error("fresh model must not be rebuilt without force")
		}
	})

	t.Run("similar posts from the model", func(t *testing.T) {
		_, env := doRequest(t, handler, http.MethodGet, "/api/v1/posts/"+itoa(starter)+"/similar?limit=1")
		var sim models.SimilarPostsResponse
		decodeData(t, env, &sim)
		if sim.Fallback {
			t.Fatal("fallback = true with a fresh model")
		}
		if len(sim.PostIDs) != 1 || sim.PostIDs[0] != hydration {
			t.Errorf("post_ids = %v, want [%d]", sim.PostIDs, hydration)
		}
		if len(sim.Posts) != 1 || sim.Posts[0].Title != "Sourdough hydration explained" {
			t.Errorf("posts = %+v", sim.Posts)
		}
	})

	t.Run("recommendations exclude commented posts", func(t *testing.T) {
		_, env := doRequest(t, handler, http.MethodGet, "/api/v1/users/101/recommendations")
		var recs models.RecommendationsResponse
		decodeData(t, env, &recs)
		if len(recs.Posts) != 5 {
			t.Fatalf("got %d posts, want 5", len(recs.Posts))
		}
		seen := make(map[int64]bool)
		for _, p := range recs.Posts {
			if p.ID == starter || p.ID == hydration {
				t.Errorf("post %d was commented on by the user", p.ID)
			}
			if seen[p.ID] {
				t.Errorf("post %d recommended twice", p.ID)
			}
			seen[p.ID] = true
		}
		for i := 1; i < len(recs.Posts); i++ {
			if recs.Posts[i].CreatedAt.After(recs.Posts[i-1].CreatedAt) {
				t.Errorf("posts not newest first at %d", i)
			}
		}
	})

	t.Run("status is fresh", func(t *testing.T) {
		_, env := doRequest(t, handler, http.MethodGet, "/api/v1/recommendations/status")
		var st models.ModelStatus
		decodeData(t, env, &st)
		if st.State != string(recommend.StateFresh) || st.Version != 1 || st.Backend != config.StoreBackendFile {
			t.Errorf("unexpected status: %+v", st)
		}
	})

	t.Run("ready", func(t *testing.T) {
		if rec, _ := doRequest(t, handler, http.MethodGet, "/health/ready"); rec.Code != http.StatusOK {
			t.Errorf("ready status = %d, want 200", rec.Code)
		}
	})
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
