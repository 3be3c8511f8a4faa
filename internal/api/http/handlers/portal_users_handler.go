package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// InvitationLinker builds the setup link mailed with an invitation.
type InvitationLinker interface {
	InvitationLink(token string) string
}

// PortalUsersHandler manages invited portal accounts.
type PortalUsersHandler struct {
	service *service.PortalUserService
	links   InvitationLinker
}

func NewPortalUsersHandler(portal *service.PortalUserService, links InvitationLinker) *PortalUsersHandler {
	return &PortalUsersHandler{service: portal, links: links}
}

// List GET /portal-users.
func (h *PortalUsersHandler) List(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.NewPortalUserList(h.service.List())})
}

// Get GET /portal-users/:id.
func (h *PortalUsersHandler) Get(c *fiber.Ctx) error {
	user, err := h.service.Get(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPortalUserResponse(user)})
}

// Invite POST /portal-users.
func (h *PortalUsersHandler) Invite(c *fiber.Ctx) error {
	var req dto.InvitePortalUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, token, err := h.service.Invite(c.UserContext(), req.Email, req.PermissionProfile)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.InvitationResponse{
		User:           dto.NewPortalUserResponse(user),
		InvitationLink: h.links.InvitationLink(token),
	}})
}

// UpdatePermission PUT /portal-users/:id/permission.
func (h *PortalUsersHandler) UpdatePermission(c *fiber.Ctx) error {
	var req dto.UpdatePermissionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.service.UpdatePermission(c.UserContext(), c.Params("id"), req.PermissionProfile)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPortalUserResponse(user)})
}

// Suspend POST /portal-users/:id/suspend.
func (h *PortalUsersHandler) Suspend(c *fiber.Ctx) error {
	user, err := h.service.Suspend(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPortalUserResponse(user)})
}

// Reactivate POST /portal-users/:id/reactivate.
func (h *PortalUsersHandler) Reactivate(c *fiber.Ctx) error {
	user, err := h.service.Reactivate(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPortalUserResponse(user)})
}

// Remove DELETE /portal-users/:id.
func (h *PortalUsersHandler) Remove(c *fiber.Ctx) error {
	if err := h.service.Remove(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
