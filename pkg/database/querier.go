package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx behavior repositories need. *pgxpool.Pool and
// pgx.Tx both satisfy it, so the same repository code runs inside or outside
// a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type contextKey string

// querierKey is the context key carrying the active transaction's querier.
const querierKey contextKey = "querier"

// WithQuerier stores a querier (normally a transaction) in the context.
func WithQuerier(ctx context.Context, q Querier) context.Context {
	return context.WithValue(ctx, querierKey, q)
}

// QuerierFrom returns the transaction bound to ctx, or the pool when the
// call runs outside InTx.
func (db *DB) QuerierFrom(ctx context.Context) Querier {
	if q, ok := ctx.Value(querierKey).(Querier); ok {
		return q
	}
	return db.Pool
}

// InTx runs fn as one atomic unit of work: every repository call made
// through the ctx it passes sees the same snapshot, and all writes commit or
// roll back together. A ctx already carrying a transaction joins it, so
// nested InTx calls share the outer boundary.
func (db *DB) InTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(querierKey).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(WithQuerier(ctx, tx)); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation, the store's signal for a write conflict on keyword rows.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
