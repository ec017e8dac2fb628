// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/inkpost/internal/recommend/model"
)

var (
	// ErrNilSource is returned by NewEngine without a DocumentSource.
	ErrNilSource = errors.New("recommend: document source is required")

	// ErrNilStore is returned by NewEngine without a ModelStore.
	ErrNilStore = errors.New("recommend: model store is required")

	// ErrUpstream marks failures of the DocumentSource. The source's own
	// error stays in the chain.
	ErrUpstream = errors.New("document source failure")
)

func upstreamError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
}

// Post is a blog post as seen by the engine.
type Post struct {
	ID        model.DocumentID
	Title     string
	Content   string
	AuthorID  int64
	Published bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DocumentSource is the document store the engine reads from.
// It is typically implemented by the database layer.
type DocumentSource interface {
	// EligiblePosts returns every published post in ascending id order.
	EligiblePosts(ctx context.Context) ([]Post, error)

	// UserInteractionIDs returns the distinct post ids the user has commented on.
	UserInteractionIDs(ctx context.Context, userID int64) ([]model.DocumentID, error)

	// RecentPosts returns up to limit published posts, newest first (id
	// descending on equal timestamps), skipping the excluded ids.
	RecentPosts(ctx context.Context, limit int, exclude []model.DocumentID) ([]Post, error)

	// ResolvePosts returns the published posts among ids. Order is unspecified.
	ResolvePosts(ctx context.Context, ids []model.DocumentID) ([]Post, error)
}

// ModelStore persists model bundles. storage.FileStore and
// storage.BadgerStore implement it.
type ModelStore interface {
	Save(ctx context.Context, b *model.Bundle) error

	// Load returns the current bundle or an error satisfying
	// errors.Is(err, storage.ErrModelAbsent).
	Load(ctx context.Context) (*model.Bundle, error)

	IsStale(ctx context.Context) (bool, error)
}

// Notifier is told about every successfully saved bundle.
type Notifier interface {
	ModelRebuilt(ctx context.Context, result RebuildResult) error
}

// RebuildResult describes a completed rebuild.
type RebuildResult struct {
	Version        int           `json:"version"`
	BuiltAt        time.Time     `json:"built_at"`
	Documents      int           `json:"documents"`
	VocabularySize int           `json:"vocabulary_size"`
	Duration       time.Duration `json:"duration"`

	// Shared is true when the caller joined a rebuild started by another caller.
	Shared bool `json:"shared"`
}

// SimilarResult is the answer to a similar-posts query.
type SimilarResult struct {
	PostID model.DocumentID

	// IDs is the ranked id list. SimilarPosts narrows it to the ids in Posts.
	IDs []model.DocumentID

	// RankedIDs is the ranking before unpublished posts were dropped, so it
	// equals what SimilarTo returns for the same bundle.
	RankedIDs []model.DocumentID

	// Posts holds the published records for IDs in the same order.
	// Only populated by SimilarPosts.
	Posts []Post

	// Fallback is true when no usable model existed and IDs are the newest posts.
	Fallback bool
}

// ModelState is the lifecycle state of the stored bundle.
type ModelState string

const (
	StateAbsent ModelState = "absent"
	StateFresh  ModelState = "fresh"
	StateStale  ModelState = "stale"
)

// Status reports the model lifecycle and the last rebuild attempt.
type Status struct {
	State          ModelState
	Version        int
	BuiltAt        time.Time
	Documents      int
	VocabularySize int

	Rebuilding    bool
	LastError     string
	LastDuration  time.Duration
	LastRebuildAt time.Time
}

// postIDs extracts ids in order.
func postIDs(posts []Post) []model.DocumentID {
	ids := make([]model.DocumentID, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	return ids
}

// sortByRecency orders posts newest first, breaking ties by id descending.
func sortByRecency(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
}
