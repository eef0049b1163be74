package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a Store backed by a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

func bind(db DBTX) Repositories {
	return Repositories{
		Users:    NewUserRepository(db),
		Tickets:  NewTicketRepository(db),
		Messages: NewMessageRepository(db),
	}
}

func (s *postgresStore) Repos() Repositories {
	return bind(s.pool)
}

func (s *postgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, bind(tx))
	})
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}
