package repository

import (
	"context"

	"github.com/pkg/errors"

	"github.com/triage-desk/ticket-router/internal/domain"
)

// UserRepository defines persistence access for directory users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	Count(ctx context.Context) (int, error)
}

type userRepository struct {
	db DBTX
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (username, role)
        VALUES ($1, $2)
        RETURNING id, created_at`

	return errors.WithStack(r.db.QueryRow(ctx, query,
		user.Username,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt))
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, username, role, created_at
        FROM users WHERE id=$1`

	if err := checkID(id); err != nil {
		return nil, err
	}
	var user domain.User
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.Role,
		&user.CreatedAt,
	); err != nil {
		return nil, errors.WithStack(err)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	const query = `
        SELECT id, username, role, created_at
        FROM users ORDER BY created_at ASC, username ASC`
	return r.list(ctx, query)
}

func (r *userRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	const query = `
        SELECT id, username, role, created_at
        FROM users WHERE role=$1 ORDER BY created_at ASC, username ASC`
	return r.list(ctx, query, role)
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, errors.WithStack(err)
	}
	return n, nil
}

func (r *userRepository) list(ctx context.Context, query string, args ...any) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Role,
			&user.CreatedAt,
		); err != nil {
			return nil, errors.WithStack(err)
		}
		result = append(result, user)
	}
	return result, errors.WithStack(rows.Err())
}
