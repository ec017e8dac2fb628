// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/inkpost/internal/logging"
	"github.com/tomtom215/inkpost/internal/metrics"
	"github.com/tomtom215/inkpost/internal/recommend/model"
)

// queryBuilder helps construct SQL queries with filters
type queryBuilder struct {
	baseQuery string
	args      []interface{}
	filters   []string
}

// newQueryBuilder creates a new query builder with a base query.
// The base query must end in a WHERE clause; filters are joined with AND.
func newQueryBuilder(baseQuery string) *queryBuilder {
	return &queryBuilder{
		baseQuery: baseQuery,
		args:      make([]interface{}, 0, 8),
		filters:   make([]string, 0, 4),
	}
}

// addFilter adds a custom filter condition
func (qb *queryBuilder) addFilter(condition string, args ...interface{}) *queryBuilder {
	qb.filters = append(qb.filters, condition)
	qb.args = append(qb.args, args...)
	return qb
}

// addIDsFilter adds "column IN (...)" or, with negate, "column NOT IN (...)".
// An empty id list adds nothing.
func (qb *queryBuilder) addIDsFilter(column string, ids []model.DocumentID, negate bool) *queryBuilder {
	if len(ids) == 0 {
		return qb
	}
	placeholders := make([]string, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		qb.args = append(qb.args, int64(id))
	}
	op := "IN"
	if negate {
		op = "NOT IN"
	}
	qb.filters = append(qb.filters, fmt.Sprintf("%s %s (%s)", column, op, strings.Join(placeholders, ",")))
	return qb
}

// addLimit appends a LIMIT argument; the suffix passed to build must hold the placeholder.
func (qb *queryBuilder) addLimit(limit int) *queryBuilder {
	qb.args = append(qb.args, limit)
	return qb
}

// build constructs the final query and returns it with args
func (qb *queryBuilder) build(suffix string) (string, []interface{}) {
	query := qb.baseQuery
	if len(qb.filters) > 0 {
		query += " AND " + strings.Join(qb.filters, " AND ")
	}
	if suffix != "" {
		query += " " + suffix
	}
	return query, qb.args
}

// rowScanner is satisfied by *sql.Rows and *sql.Row.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanFunc is a function that scans a single row into a result type
type scanFunc[T any] func(rowScanner) (T, error)

// queryAndScan executes a query and scans all rows using the provided scan function.
// It never returns a nil slice on success.
func queryAndScan[T any](ctx context.Context, db *sql.DB, query string, args []interface{}, scan scanFunc[T]) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeWithLog(rows, "rows")

	results := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// observe records query metrics and flags lost connections.
func observe(operation, table string, start time.Time, err error) {
	metrics.RecordDBQuery(operation, table, time.Since(start), err)
	if isConnectionError(err) {
		logging.Error().Err(err).Str("operation", operation).Msg("Database connection lost")
	}
}

// withConflictRetry retries fn when DuckDB reports an optimistic transaction conflict.
func withConflictRetry(ctx context.Context, fn func() error) error {
	const attempts = 3
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil || !isTransactionConflict(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i+1) * 10 * time.Millisecond):
		}
	}
	return err
}
