// Package postgres implements the portal stores on PostgreSQL through a
// pgx connection pool.  Unlike SQLite there is no single writer; the
// conditional updates carry the concurrency guarantees on their own.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/woreda-portal/server/internal/portal/store"
)

type Store struct {
	pool *pgxpool.Pool
}

var (
	_ store.AccessRequestStore = (*Store)(nil)
	_ store.AccessGrantStore   = (*Store)(nil)
	_ store.AppointmentStore   = (*Store)(nil)
	_ store.TenantStore        = (*Store)(nil)
)

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func notFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func nullText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
