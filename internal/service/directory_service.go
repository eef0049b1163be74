package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/triage-desk/ticket-router/internal/cache"
	"github.com/triage-desk/ticket-router/internal/domain"
	"github.com/triage-desk/ticket-router/internal/repository"
	apperrors "github.com/triage-desk/ticket-router/pkg/util"
)

// Directory resolves user ids to users and roles.
type Directory struct {
	store  repository.Store
	cache  cache.UserCache
	logger *zap.Logger
}

// NewDirectory builds a directory. userCache may be nil.
func NewDirectory(store repository.Store, userCache cache.UserCache, logger *zap.Logger) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Directory{store: store, cache: userCache, logger: logger}
}

// GetUser returns the user with id or a NOT_FOUND error.
func (d *Directory) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("user id required", nil)
	}
	if d.cache != nil {
		user, err := d.cache.Get(ctx, id)
		if err != nil {
			d.logger.Warn("user cache get failed", zap.String("user_id", id), zap.Error(err))
		} else if user != nil {
			return user, nil
		}
	}

	user, err := d.store.Repos().Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return nil, apperrors.NewInternalError(err)
	}

	if d.cache != nil {
		if err := d.cache.Set(ctx, user); err != nil {
			d.logger.Warn("user cache set failed", zap.String("user_id", id), zap.Error(err))
		}
	}
	return user, nil
}

// ListUsers returns every user.
func (d *Directory) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := d.store.Repos().Users.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return users, nil
}

// GetUsersByRole returns the users holding role.
func (d *Directory) GetUsersByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": string(role)})
	}
	users, err := d.store.Repos().Users.ListByRole(ctx, role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return users, nil
}
