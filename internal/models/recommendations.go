// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package models

import "time"

// Post is the public view of a blog post.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  int64     `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SimilarPostsResponse is returned by GET /api/v1/posts/{postID}/similar.
type SimilarPostsResponse struct {
	PostID int64 `json:"post_id"`

	// PostIDs is the ranked id list as the model returned it. It can name
	// posts unpublished since the last rebuild; Posts never does.
	PostIDs []int64 `json:"post_ids"`

	// Posts are the published records for PostIDs, in ranking order.
	Posts []Post `json:"posts"`

	// Fallback is true when no model was available and posts are the newest instead.
	Fallback bool `json:"fallback"`
}

// RecommendationsResponse is returned by GET /api/v1/users/{userID}/recommendations.
type RecommendationsResponse struct {
	UserID int64  `json:"user_id"`
	Posts  []Post `json:"posts"`
}

// ModelStatus is returned by GET /api/v1/recommendations/status.
type ModelStatus struct {
	// State is one of "absent", "fresh" or "stale".
	State          string     `json:"state"`
	Version        int        `json:"version,omitempty"`
	BuiltAt        *time.Time `json:"built_at,omitempty"`
	Documents      int        `json:"documents"`
	VocabularySize int        `json:"vocabulary_size"`
	Backend        string     `json:"backend"`
	Rebuilding     bool       `json:"rebuilding"`
	LastError      string     `json:"last_error,omitempty"`
	LastDurationMS int64      `json:"last_duration_ms,omitempty"`
	LastRebuildAt  *time.Time `json:"last_rebuild_at,omitempty"`
}

// RebuildResponse is returned by POST /api/v1/recommendations/rebuild.
type RebuildResponse struct {
	// Rebuilt is false when the model was fresh and force was not set.
	Rebuilt        bool       `json:"rebuilt"`
	Shared         bool       `json:"shared,omitempty"`
	Version        int        `json:"version,omitempty"`
	BuiltAt        *time.Time `json:"built_at,omitempty"`
	Documents      int        `json:"documents"`
	VocabularySize int        `json:"vocabulary_size"`
	DurationMS     int64      `json:"duration_ms"`
}

// HealthStatus is returned by the health endpoints.
type HealthStatus struct {
	Status   string            `json:"status"`
	Checks   map[string]string `json:"checks,omitempty"`
	Uptime   string            `json:"uptime,omitempty"`
	Version  string            `json:"version,omitempty"`
	Database bool              `json:"database_connected"`
}
