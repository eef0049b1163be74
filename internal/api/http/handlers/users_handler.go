package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/triage-desk/ticket-router/internal/api/dto"
	"github.com/triage-desk/ticket-router/internal/domain"
	"github.com/triage-desk/ticket-router/internal/service"
)

// UsersHandler exposes the directory.
type UsersHandler struct {
	directory *service.Directory
}

// NewUsersHandler constructs handler.
func NewUsersHandler(directory *service.Directory) *UsersHandler {
	return &UsersHandler{directory: directory}
}

// List handles GET /users with an optional ?role= filter.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	var (
		users []domain.User
		err   error
	)
	if role := c.Query("role"); role != "" {
		users, err = h.directory.GetUsersByRole(c.UserContext(), domain.Role(role))
	} else {
		users, err = h.directory.ListUsers(c.UserContext())
	}
	if err != nil {
		return err
	}

	items := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, dto.NewUserResponse(u))
	}
	return c.JSON(items)
}
