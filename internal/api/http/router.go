package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/triage-desk/ticket-router/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Users   *handlers.UsersHandler
	Tickets *handlers.TicketsHandler
	WS      *handlers.WSHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Get("/users", cfg.Users.List)

	tickets := app.Group("/tickets")
	tickets.Post("", cfg.Tickets.Create)
	tickets.Get("/:id/messages", cfg.Tickets.Messages)
	tickets.Post("/:id/assign", cfg.Tickets.Assign)
	tickets.Post("/:id/contact-vendor", cfg.Tickets.ContactVendor)
	tickets.Post("/:id/send-message", cfg.Tickets.SendMessage)
	tickets.Post("/:id/resolve", cfg.Tickets.Resolve)
	tickets.Get("/:userID", cfg.Tickets.ListForUser)

	if cfg.WS != nil {
		app.Get("/ws/:userID", cfg.WS.Upgrade, cfg.WS.Stream())
	}
}
