// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/inkpost/internal/recommend"
	"github.com/tomtom215/inkpost/internal/recommend/model"
)

// DB implements the document source the recommendation engine reads from.
var _ recommend.DocumentSource = (*DB)(nil)

const postColumns = "id, title, content, author_id, published, created_at, updated_at"

// NewPost holds the fields needed to create a post.
type NewPost struct {
	Title     string
	Content   string
	AuthorID  int64
	Published bool

	// CreatedAt defaults to now.
	CreatedAt time.Time
}

// NewComment holds the fields needed to create a comment.
type NewComment struct {
	PostID  model.DocumentID
	UserID  int64
	Content string

	// CreatedAt defaults to now.
	CreatedAt time.Time
}

func scanPost(row rowScanner) (recommend.Post, error) {
	var (
		p  recommend.Post
		id int64
	)
	if err := row.Scan(&id, &p.Title, &p.Content, &p.AuthorID, &p.Published, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return p, err
	}
	p.ID = model.DocumentID(id)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func scanID(row rowScanner) (model.DocumentID, error) {
	var id int64
	err := row.Scan(&id)
	return model.DocumentID(id), err
}

// EligiblePosts returns every published post in ascending id order.
func (db *DB) EligiblePosts(ctx context.Context) (posts []recommend.Post, err error) {
	if db.closed.Load() {
		return nil, ErrDatabaseClosed
	}
	defer func(start time.Time) { observe("eligible_posts", "posts", start, err) }(time.Now())
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	posts, err = queryAndScan(ctx, db.conn,
		`SELECT `+postColumns+` FROM posts WHERE published ORDER BY id`, nil, scanPost)
	if err != nil {
		return nil, fmt.Errorf("query eligible posts: %w", err)
	}
	return posts, nil
}

// UserInteractionIDs returns the distinct posts userID has commented on, in id order.
func (db *DB) UserInteractionIDs(ctx context.Context, userID int64) (ids []model.DocumentID, err error) {
	if db.closed.Load() {
		return nil, ErrDatabaseClosed
	}
	defer func(start time.Time) { observe("user_interactions", "comments", start, err) }(time.Now())
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	ids, err = queryAndScan(ctx, db.conn,
		`SELECT DISTINCT post_id FROM comments WHERE user_id = ? ORDER BY post_id`,
		[]interface{}{userID}, scanID)
	if err != nil {
		return nil, fmt.Errorf("query user interactions: %w", err)
	}
	return ids, nil
}

// RecentPosts returns up to limit published posts, newest first with id
// descending on equal timestamps, skipping exclude.
func (db *DB) RecentPosts(ctx context.Context, limit int, exclude []model.DocumentID) (posts []recommend.Post, err error) {
	if db.closed.Load() {
		return nil, ErrDatabaseClosed
	}
	if limit < 1 {
		return []recommend.Post{}, nil
	}
	defer func(start time.Time) { observe("recent_posts", "posts", start, err) }(time.Now())
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	query, args := newQueryBuilder(`SELECT `+postColumns+` FROM posts WHERE published`).
		addIDsFilter("id", exclude, true).
		addLimit(limit).
		build("ORDER BY created_at DESC, id DESC LIMIT ?")

	posts, err = queryAndScan(ctx, db.conn, query, args, scanPost)
	if err != nil {
		return nil, fmt.Errorf("query recent posts: %w", err)
	}
	return posts, nil
}

// ResolvePosts returns the published posts among ids, in id order.
func (db *DB) ResolvePosts(ctx context.Context, ids []model.DocumentID) (posts []recommend.Post, err error) {
	if db.closed.Load() {
		return nil, ErrDatabaseClosed
	}
	if len(ids) == 0 {
		return []recommend.Post{}, nil
	}
	defer func(start time.Time) { observe("resolve_posts", "posts", start, err) }(time.Now())
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	query, args := newQueryBuilder(`SELECT `+postColumns+` FROM posts WHERE published`).
		addIDsFilter("id", ids, false).
		build("ORDER BY id")

	posts, err = queryAndScan(ctx, db.conn, query, args, scanPost)
	if err != nil {
		return nil, fmt.Errorf("resolve posts: %w", err)
	}
	return posts, nil
}

// CreatePost inserts a post and returns it with its assigned id.
func (db *DB) CreatePost(ctx context.Context, np NewPost) (post *recommend.Post, err error) {
	if db.closed.Load() {
		return nil, ErrDatabaseClosed
	}
	if strings.TrimSpace(np.Title) == "" {
		return nil, errors.New("post title is required")
	}
	defer func(start time.Time) { observe("create_post", "posts", start, err) }(time.Now())
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	created := np.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	created = created.UTC()

	var id int64
	err = withConflictRetry(ctx, func() error {
		return db.conn.QueryRowContext(ctx,
			`INSERT INTO posts (title, content, author_id, published, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
			np.Title, np.Content, np.AuthorID, np.Published, created, created).Scan(&id)
	})
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}

	return &recommend.Post{
		ID:        model.DocumentID(id),
		Title:     np.Title,
		Content:   np.Content,
		AuthorID:  np.AuthorID,
		Published: np.Published,
		CreatedAt: created,
		UpdatedAt: created,
	}, nil
}

// CreateComment records a comment and returns its id.
func (db *DB) CreateComment(ctx context.Context, nc NewComment) (id int64, err error) {
	if db.closed.Load() {
		return 0, ErrDatabaseClosed
	}
	defer func(start time.Time) { observe("create_comment", "comments", start, err) }(time.Now())
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	created := nc.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	err = withConflictRetry(ctx, func() error {
		return db.conn.QueryRowContext(ctx,
			`INSERT INTO comments (post_id, user_id, content, created_at) VALUES (?, ?, ?, ?) RETURNING id`,
			int64(nc.PostID), nc.UserID, nc.Content, created.UTC()).Scan(&id)
	})
	if err != nil {
		return 0, fmt.Errorf("insert comment: %w", err)
	}
	return id, nil
}

// CountPosts returns the number of posts, published or not.
func (db *DB) CountPosts(ctx context.Context) (n int64, err error) {
	if db.closed.Load() {
		return 0, ErrDatabaseClosed
	}
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}
