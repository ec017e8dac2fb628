// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

// Package recommend implements content-similarity recommendations for blog posts.
//
// # Architecture
//
// The engine ties four collaborators together:
//
//   - DocumentSource: the post and comment store (see internal/database)
//   - vectorizer: fits a TF-IDF model over title and content
//   - ModelStore: persists the fitted bundle (see the storage subpackage)
//   - ranking: cosine top-k over the stored matrix
//
// # Model Lifecycle
//
// The stored bundle moves between three states:
//
//	ABSENT --build--> FRESH --expiry--> STALE --rebuild--> FRESH
//
// A stale bundle keeps serving SimilarTo until something rebuilds it.
// RecommendationsFor rebuilds a stale model before answering, and the
// scheduled rebuild service does the same in the background.
//
// # Usage
//
//	engine, err := recommend.NewEngine(cfg, db, store, logger,
//	    recommend.WithNotifier(bus))
//	if err != nil {
//	    return err
//	}
//	defer engine.Close()
//
//	ids, err := engine.SimilarTo(ctx, postID, 3)
//	posts, err := engine.RecommendationsFor(ctx, userID, 5)
//
// # Thread Safety
//
// The engine is safe for concurrent use. Concurrent rebuilds collapse into
// one through a single-flight group: every caller that asks while a rebuild
// is running waits for and shares that rebuild's result. Queries read the
// bundle the store currently holds and never observe a partial save.
package recommend
