package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/triage-desk/ticket-router/internal/domain"
	"github.com/triage-desk/ticket-router/internal/repository"
)

// DemoUsers is the directory a fresh installation starts with.
var DemoUsers = []domain.User{
	{Username: "Customer", Role: domain.RoleCustomer},
	{Username: "Business", Role: domain.RoleBusiness},
	{Username: "Vendor", Role: domain.RoleVendor},
}

// SeedDemoUsers inserts DemoUsers when the directory is empty.
func SeedDemoUsers(ctx context.Context, users repository.UserRepository, logger *zap.Logger) error {
	n, err := users.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return nil
	}
	for _, u := range DemoUsers {
		user := u
		if err := users.Create(ctx, &user); err != nil {
			return fmt.Errorf("seed %s: %w", user.Username, err)
		}
	}
	logger.Info("demo users created", zap.Int("count", len(DemoUsers)))
	return nil
}
