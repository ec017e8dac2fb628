// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/inkpost/internal/logging"
	"github.com/tomtom215/inkpost/internal/recommend/model"
)

// demoPost is one entry of the demo corpus.
type demoPost struct {
	title     string
	content   string
	author    int64
	published bool
}

// demoPosts covers a handful of topics so the similarity model has clusters to find.
var demoPosts = []demoPost{
	{"Getting started with sourdough", "Feed your sourdough starter twice a day with flour and water until it doubles.", 1, true},
	{"Sourdough hydration explained", "Higher hydration dough gives an open crumb; start at seventy percent water to flour.", 1, true},
	{"Weeknight pasta in twenty minutes", "Boil pasta, saute garlic in olive oil, toss with parmesan and pasta water.", 2, true},
	{"Trail running for beginners", "Start trail running on flat dirt paths and walk the steep hills.", 3, true},
	{"Choosing trail running shoes", "Trail shoes need grip, a rock plate and a snug heel for technical running.", 3, true},
	{"Training for your first ultramarathon", "Back to back long runs on trails build the endurance an ultramarathon needs.", 3, true},
	{"Profiling Go services with pprof", "Capture a CPU profile with pprof and read the flame graph to find hot paths in Go.", 4, true},
	{"Reducing allocations in Go", "Reuse buffers and preallocate slices to cut allocations and garbage collector pressure in Go.", 4, true},
	{"Understanding Go channels", "Unbuffered channels synchronize goroutines; buffered channels decouple producers and consumers.", 4, true},
	{"Balcony tomato garden", "Tomatoes on a balcony need six hours of sun, deep pots and steady watering.", 5, true},
	{"Composting in small spaces", "A worm bin turns kitchen scraps into compost for balcony garden pots.", 5, true},
	{"Draft: sourdough pizza", "Unfinished notes on sourdough pizza dough and a hot oven.", 1, false},
}

// demoComments maps user ids to the demo post indexes they commented on.
var demoComments = map[int64][]int{
	101: {0, 1},
	102: {3},
	103: {6, 8},
	104: {9},
}

// SeedDemoData fills an empty database with a small demo blog. It returns the
// number of posts created, or zero when posts already exist.
func (db *DB) SeedDemoData(ctx context.Context) (int, error) {
	n, err := db.CountPosts(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logging.Debug().Int64("posts", n).Msg("Database already has posts, skipping demo data")
		return 0, nil
	}

	logging.Info().Int("posts", len(demoPosts)).Msg("Seeding database with demo data")

	// Fixed timestamps keep the recency order stable across runs.
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	ids := make([]model.DocumentID, len(demoPosts))
	for i, dp := range demoPosts {
		post, err := db.CreatePost(ctx, NewPost{
			Title:     dp.title,
			Content:   dp.content,
			AuthorID:  dp.author,
			Published: dp.published,
			CreatedAt: base.Add(time.Duration(i) * 24 * time.Hour),
		})
		if err != nil {
			return i, fmt.Errorf("seed post %q: %w", dp.title, err)
		}
		ids[i] = post.ID
	}

	for _, userID := range []int64{101, 102, 103, 104} {
		for _, idx := range demoComments[userID] {
			_, err := db.CreateComment(ctx, NewComment{
				PostID:    ids[idx],
				UserID:    userID,
				Content:   "Great post, thanks!",
				CreatedAt: base.Add(time.Duration(idx)*24*time.Hour + time.Hour),
			})
			if err != nil {
				return len(ids), fmt.Errorf("seed comment: %w", err)
			}
		}
	}

	return len(ids), nil
}
