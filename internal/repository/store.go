package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx so repositories can
// run inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories groups the repositories bound to one connection or transaction.
type Repositories struct {
	Users    UserRepository
	Tickets  TicketRepository
	Messages MessageRepository
}

// Store hands out repositories and runs work atomically.
type Store interface {
	Repos() Repositories
	// WithinTx runs fn inside a single transaction. Nothing fn wrote is
	// kept when it returns an error.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// checkID rejects ids that cannot be a primary key. Postgres would fail
// the cast with 22P02; callers get the same ErrNoRows as a missing row.
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.WithStack(pgx.ErrNoRows)
	}
	return nil
}
