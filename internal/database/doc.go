// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

// Package database provides the DuckDB data layer for Inkpost.
//
// # Overview
//
// The package owns the blog schema (posts and comments) and implements
// recommend.DocumentSource on top of it, so the recommendation engine reads
// its corpus, user interactions and recency fallbacks from DuckDB.
//
// # Architecture
//
//   - database.go: Connection lifecycle (open, pool, checkpoint, close)
//   - migrations.go: Versioned schema migrations tracked in schema_migrations
//   - posts.go: Post and comment queries, including the DocumentSource methods
//   - query_helpers.go: Query building, row scanning, metrics and conflict retry
//   - resilient.go: Circuit breaker wrapper around any DocumentSource
//   - seed.go: Demo corpus for local runs
//
// # Schema
//
//	posts(id, title, content, author_id, published, created_at, updated_at)
//	comments(id, post_id, user_id, content, created_at)
//
// Timestamps are stored as UTC TIMESTAMP values. Ids come from sequences.
//
// # Document Source Semantics
//
//   - EligiblePosts: published posts, id ascending
//   - UserInteractionIDs: distinct post ids the user commented on
//   - RecentPosts: published posts, newest first, id descending on ties
//   - ResolvePosts: published posts among the given ids
//
// # Usage Example
//
//	db, err := database.New(&cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	source := database.NewResilientSource(db, "duckdb", cfg.Database.Breaker)
//	engine, err := recommend.NewEngine(recCfg, source, store, logger)
//
// # Thread Safety
//
// DB is safe for concurrent use. Writes retry DuckDB optimistic transaction
// conflicts a few times before giving up.
package database
