package dto

import (
	"time"

	"github.com/triage-desk/ticket-router/internal/domain"
)

// UserResponse is a directory entry.
type UserResponse struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

// UserRef names a ticket party.
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// UserRoleRef names a message party with its role.
type UserRoleRef struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u domain.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Role: u.Role, CreatedAt: u.CreatedAt}
}

func userRef(u *domain.User) *UserRef {
	if u == nil {
		return nil
	}
	return &UserRef{ID: u.ID, Username: u.Username}
}

func userRoleRef(u *domain.User) *UserRoleRef {
	if u == nil {
		return nil
	}
	return &UserRoleRef{ID: u.ID, Username: u.Username, Role: u.Role}
}
