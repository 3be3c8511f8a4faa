package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

const readinessProbeKey = "health:probe"

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	backends    *persistence.Backends
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(serviceName, version string, backends *persistence.Backends) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, backends: backends}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking the configured stores.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true
	check := func(name string, err error) {
		if err != nil {
			depStatus[name] = err.Error()
			ready = false
			return
		}
		depStatus[name] = "ok"
	}

	_, err := h.backends.KV.Get(ctx, readinessProbeKey)
	if errors.Is(err, persistence.ErrKeyNotFound) {
		err = nil
	}
	check("store", err)
	if h.backends.Postgres != nil {
		check("postgres", h.backends.Postgres.Ping(ctx))
	}
	if h.backends.Redis != nil {
		check("redis", h.backends.Redis.Ping(ctx))
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
