// Package repository stores tours, users and reviews in PostgreSQL.
package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/denzelpenzel/tours/internal/apperror"
	"github.com/denzelpenzel/tours/internal/query"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool used by the repositories; pgx.Tx
// satisfies it too.
type DB interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// scope returns a copy of q with an extra condition, leaving the caller's
// query untouched.
func scope(q *query.Query, column string, op query.Operator, value interface{}) *query.Query {
	if q == nil {
		q = query.New()
	}
	scoped := *q
	scoped.Conditions = append(slices.Clone(q.Conditions), query.Condition{Column: column, Op: op, Values: []interface{}{value}})
	return &scoped
}

// one maps a missing row onto apperror.ErrNotFound
func one(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.ErrNotFound
	}
	return fmt.Errorf("failed to %s: %w", what, err)
}

func deleteByID(ctx context.Context, db DB, table string, id interface{}) error {
	tag, err := db.Exec(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Truncate empties every table, dependants first
func Truncate(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, "TRUNCATE reviews, tours, users"); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}
