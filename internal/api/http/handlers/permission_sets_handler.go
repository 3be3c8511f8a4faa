package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// PermissionSetsHandler manages named permission sets.
type PermissionSetsHandler struct {
	sets  *service.PermissionSetService
	users *service.PortalUserService
}

func NewPermissionSetsHandler(sets *service.PermissionSetService, users *service.PortalUserService) *PermissionSetsHandler {
	return &PermissionSetsHandler{sets: sets, users: users}
}

// List GET /permission-sets.
func (h *PermissionSetsHandler) List(c *fiber.Ctx) error {
	sets := h.sets.List()
	out := make([]dto.PermissionSetResponse, 0, len(sets))
	for _, set := range sets {
		out = append(out, h.response(set))
	}
	return c.JSON(fiber.Map{"data": out})
}

// Get GET /permission-sets/:id.
func (h *PermissionSetsHandler) Get(c *fiber.Ctx) error {
	set, err := h.sets.Get(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.response(set)})
}

// Create POST /permission-sets.
func (h *PermissionSetsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreatePermissionSetRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	set, err := h.sets.Create(c.UserContext(), service.PermissionSetInput{
		Name:        req.Name,
		Description: req.Description,
		Modules:     req.Modules,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": h.response(set)})
}

// Update PATCH /permission-sets/:id.
func (h *PermissionSetsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdatePermissionSetRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	set, err := h.sets.Update(c.UserContext(), c.Params("id"), service.PermissionSetPatch{
		Name:        req.Name,
		Description: req.Description,
		Modules:     req.Modules,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.response(set)})
}

// Delete DELETE /permission-sets/:id.
func (h *PermissionSetsHandler) Delete(c *fiber.Ctx) error {
	if err := h.sets.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PermissionSetsHandler) response(set domain.PermissionSet) dto.PermissionSetResponse {
	return dto.PermissionSetResponse{PermissionSet: set, UserCount: h.users.CountByPermissionSet(set.ID)}
}
