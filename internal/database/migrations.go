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
)

// Migration represents a versioned database migration.
type Migration struct {
	Version     int       // Unique version number (monotonically increasing)
	Name        string    // Human-readable migration name
	Description string    // Description of what this migration does
	Statements  []string  // SQL statements executed in order inside one transaction
	AppliedAt   time.Time // When the migration was applied (populated on query)
}

// schemaMigrationsTable creates the migration tracking table
const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	applied_at TIMESTAMP NOT NULL
);
`

// getMigrations returns all versioned migrations in order.
//
// Migrations MUST be append-only - never modify or remove existing migrations
// once users have databases with data.
func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Name:        "create_posts",
			Description: "Blog posts; only published posts are recommendable",
			Statements: []string{
				`CREATE SEQUENCE IF NOT EXISTS posts_id_seq START 1`,
				`CREATE TABLE IF NOT EXISTS posts (
					id BIGINT PRIMARY KEY DEFAULT nextval('posts_id_seq'),
					title TEXT NOT NULL,
					content TEXT NOT NULL,
					author_id BIGINT NOT NULL,
					published BOOLEAN NOT NULL DEFAULT true,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL
				)`,
			},
		},
		{
			Version:     2,
			Name:        "create_comments",
			Description: "Comments; a user's commented posts seed their recommendations",
			Statements: []string{
				`CREATE SEQUENCE IF NOT EXISTS comments_id_seq START 1`,
				// No foreign key: DuckDB rejects updates to referenced rows.
				`CREATE TABLE IF NOT EXISTS comments (
					id BIGINT PRIMARY KEY DEFAULT nextval('comments_id_seq'),
					post_id BIGINT NOT NULL,
					user_id BIGINT NOT NULL,
					content TEXT NOT NULL,
					created_at TIMESTAMP NOT NULL
				)`,
			},
		},
		{
			Version:     3,
			Name:        "recommend_indexes",
			Description: "Indexes for recency ordering and interaction lookups",
			Statements: []string{
				`CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts (created_at)`,
				`CREATE INDEX IF NOT EXISTS idx_comments_user_id ON comments (user_id)`,
				`CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments (post_id)`,
			},
		},
	}
}

// createMigrationsTable creates the schema_migrations table if it doesn't exist
func (db *DB) createMigrationsTable(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, schemaMigrationsTable)
	return err
}

// getAppliedMigrations returns a map of version -> Migration for all applied migrations
func (db *DB) getAppliedMigrations(ctx context.Context) (map[int]Migration, error) {
	history, err := db.migrationHistory(ctx)
	if err != nil {
		return nil, err
	}
	applied := make(map[int]Migration, len(history))
	for _, m := range history {
		applied[m.Version] = m
	}
	return applied, nil
}

// runVersionedMigrations executes only new migrations that haven't been applied yet.
func (db *DB) runVersionedMigrations() error {
	ctx, cancel := schemaContext()
	defer cancel()

	if err := db.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	newMigrations := 0
	for _, m := range getMigrations() {
		if _, exists := applied[m.Version]; exists {
			continue
		}
		if err := db.applyMigration(ctx, m); err != nil {
			return err
		}
		newMigrations++
	}

	if newMigrations > 0 {
		logging.Info().Int("count", newMigrations).Msg("Applied database migrations")
	}
	return nil
}

// applyMigration runs one migration and records it in a single transaction.
func (db *DB) applyMigration(ctx context.Context, m Migration) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration v%d: %w", m.Version, err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // no-op after commit

	for _, stmt := range m.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute migration v%d (%s): %w", m.Version, m.Name, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name, description, applied_at) VALUES (?, ?, ?, ?)`,
		m.Version, m.Name, m.Description, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration v%d: %w", m.Version, err)
	}
	return nil
}

// GetCurrentSchemaVersion returns the highest applied migration version
func (db *DB) GetCurrentSchemaVersion(ctx context.Context) (int, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	var version int
	err := db.conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// GetMigrationHistory returns all applied migrations in order
func (db *DB) GetMigrationHistory(ctx context.Context) ([]Migration, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	return db.migrationHistory(ctx)
}

func (db *DB) migrationHistory(ctx context.Context) ([]Migration, error) {
	return queryAndScan(ctx, db.conn,
		`SELECT version, name, COALESCE(description, ''), applied_at FROM schema_migrations ORDER BY version`, nil,
		func(rows rowScanner) (Migration, error) {
			var m Migration
			err := rows.Scan(&m.Version, &m.Name, &m.Description, &m.AppliedAt)
			return m, err
		})
}
