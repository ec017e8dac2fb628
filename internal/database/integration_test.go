// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package database

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/inkpost/internal/recommend"
	"github.com/tomtom215/inkpost/internal/recommend/model"
	"github.com/tomtom215/inkpost/internal/recommend/storage"
)

// seededEngine wires the demo database into a recommendation engine backed by a file store.
func seededEngine(t *testing.T) (*recommend.Engine, *DB, []model.DocumentID) {
	t.Helper()
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.SeedDemoData(ctx); err != nil {
		t.Fatalf("SeedDemoData() error = %v", err)
	}
	all, err := db.EligiblePosts(ctx)
	if err != nil {
		t.Fatalf("EligiblePosts() error = %v", err)
	}
	// Demo posts are inserted in order, so published ids follow demoPosts.
	ids := postIDs(all)

	store, err := storage.NewFileStore(storage.Options{Dir: t.TempDir(), Expiry: time.Hour}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	engine, err := recommend.NewEngine(nil, db, store, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, db, ids
}

func TestEngineOverDuckDB_SimilarTo(t *testing.T) {
	engine, _, ids := seededEngine(t)
	ctx := context.Background()

	// No model yet: recency fallback, never the post itself.
	before, err := engine.SimilarPosts(ctx, ids[0], 3)
	if err != nil {
		t.Fatalf("SimilarPosts() error = %v", err)
	}
	if !before.Fallback || len(before.IDs) != 3 {
		t.Fatalf("SimilarPosts() before rebuild = %+v, want 3 fallback ids", before)
	}

	if _, err := engine.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	got, err := engine.SimilarTo(ctx, ids[0], 3)
	if err != nil {
		t.Fatalf("SimilarTo() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("SimilarTo() = %v, want 3 ids", got)
	}
	// The two sourdough posts share the most vocabulary.
	if got[0] != ids[1] {
		t.Errorf("SimilarTo(sourdough)[0] = %d, want %d", got[0], ids[1])
	}
	for _, id := range got {
		if id == ids[0] {
			t.Errorf("SimilarTo() returned the query post %d", id)
		}
	}
}

func TestEngineOverDuckDB_RecommendationsFor(t *testing.T) {
	engine, _, ids := seededEngine(t)
	ctx := context.Background()

	// User 102 commented on the beginner trail running post only.
	posts, err := engine.RecommendationsFor(ctx, 102, 5)
	if err != nil {
		t.Fatalf("RecommendationsFor() error = %v", err)
	}
	if len(posts) != 5 {
		t.Fatalf("RecommendationsFor() returned %d posts, want 5", len(posts))
	}

	seen := make(map[model.DocumentID]bool)
	for i, p := range posts {
		if p.ID == ids[3] {
			t.Errorf("recommendations include the post the user commented on")
		}
		if !p.Published {
			t.Errorf("recommendation %d is unpublished", p.ID)
		}
		if seen[p.ID] {
			t.Errorf("duplicate recommendation %d", p.ID)
		}
		seen[p.ID] = true
		if i > 0 && p.CreatedAt.After(posts[i-1].CreatedAt) {
			t.Errorf("recommendations not ordered newest first at %d", i)
		}
	}
	if !seen[ids[4]] {
		t.Errorf("expected the trail shoes post %d among %v", ids[4], postIDs(posts))
	}

	// The read triggered a rebuild of the absent model.
	if stale, err := engine.IsModelStale(ctx); err != nil || stale {
		t.Errorf("IsModelStale() = (%v, %v), want (false, nil)", stale, err)
	}
}

func TestEngineOverDuckDB_UnpublishRemovesAfterRebuild(t *testing.T) {
	engine, db, ids := seededEngine(t)
	ctx := context.Background()

	if _, err := engine.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	setPublished(t, db, ids[1], false)

	// Before a rebuild the ranker still knows the post, but it is not resolved.
	res, err := engine.SimilarPosts(ctx, ids[0], 3)
	if err != nil {
		t.Fatalf("SimilarPosts() error = %v", err)
	}
	for _, p := range res.Posts {
		if p.ID == ids[1] {
			t.Errorf("unpublished post %d resolved", p.ID)
		}
	}

	if _, err := engine.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	got, err := engine.SimilarTo(ctx, ids[0], 10)
	if err != nil {
		t.Fatalf("SimilarTo() error = %v", err)
	}
	for _, id := range got {
		if id == ids[1] {
			t.Errorf("unpublished post %d still ranked after rebuild", id)
		}
	}
}
