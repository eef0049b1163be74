package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/triage-desk/ticket-router/internal/observability"
)

// Dependency is an optional backing service checked by readiness.
type Dependency interface {
	Enabled() bool
	Ping(ctx context.Context) error
}

// ConnectionCounter reports how many viewers hold a push channel.
type ConnectionCounter interface {
	Connected() int
}

// HealthHandler responds to liveness and readiness checks.
type HealthHandler struct {
	serviceName  string
	version      string
	dependencies map[string]Dependency
	hub          ConnectionCounter
	metrics      *observability.Metrics
}

// NewHealthHandler returns a new handler instance. Dependencies that are
// not enabled are reported as "disabled" and do not fail readiness.
func NewHealthHandler(serviceName, version string, dependencies map[string]Dependency, hub ConnectionCounter, metrics *observability.Metrics) *HealthHandler {
	return &HealthHandler{
		serviceName:  serviceName,
		version:      version,
		dependencies: dependencies,
		hub:          hub,
		metrics:      metrics,
	}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	body := fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	}
	if h.hub != nil {
		body["connections"] = h.hub.Connected()
	}
	return c.JSON(body)
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true

	for name, dep := range h.dependencies {
		if dep == nil || !dep.Enabled() {
			depStatus[name] = "disabled"
			continue
		}
		if err := dep.Ping(ctx); err != nil {
			depStatus[name] = err.Error()
			ready = false
			continue
		}
		depStatus[name] = "ok"
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}

// Metrics returns request counters.
func (h *HealthHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}
