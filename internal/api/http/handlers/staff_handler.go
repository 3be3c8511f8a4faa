package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// StaffHandler manages the internal staff directory.
type StaffHandler struct {
	service *service.StaffService
}

func NewStaffHandler(staffService *service.StaffService) *StaffHandler {
	return &StaffHandler{service: staffService}
}

// List GET /staff.
func (h *StaffHandler) List(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.NewStaffUserList(h.service.List())})
}

// Create POST /staff.
func (h *StaffHandler) Create(c *fiber.Ctx) error {
	var req service.StaffInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.service.Add(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewStaffUserResponse(user)})
}

// Delete DELETE /staff/:id.
func (h *StaffHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
