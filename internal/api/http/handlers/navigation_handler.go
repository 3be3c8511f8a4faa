package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/catalog"
	"github.com/spec-kit/helpdesk-service/internal/guard"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// NavigationHandler exposes the module catalog and route decisions.
type NavigationHandler struct {
	catalog  *catalog.Catalog
	resolver *service.AccessResolver
	guard    *guard.Guard
}

func NewNavigationHandler(cat *catalog.Catalog, resolver *service.AccessResolver, g *guard.Guard) *NavigationHandler {
	return &NavigationHandler{catalog: cat, resolver: resolver, guard: g}
}

// Catalog GET /modules.
func (h *NavigationHandler) Catalog(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.catalog.List()})
}

// Menu GET /navigation/menu. Staff see the whole catalog.
func (h *NavigationHandler) Menu(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if p.Portal == nil {
		return c.JSON(fiber.Map{"data": h.catalog.List()})
	}
	modules := h.resolver.ReachableModules(p.Portal.ID)
	if modules == nil {
		modules = []service.ReachableModule{}
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"modules":      modules,
		"landingRoute": h.resolver.DefaultLandingRoute(p.Portal.ID),
	}})
}

// Navigate POST /navigation/decide.
func (h *NavigationHandler) Navigate(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.NavigateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	resp := dto.NavigationResponse{Decision: h.guard.Navigate(c.UserContext(), p.SessionID, req.Path)}
	if m, ok := h.resolver.ModuleForRoute(req.Path); ok {
		resp.Module = &m
	}
	return c.JSON(fiber.Map{"data": resp})
}
