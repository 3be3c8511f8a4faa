package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// AuthHandler serves login, logout and invitation redemption.
type AuthHandler struct {
	auth   *service.AuthService
	portal *service.PortalUserService
}

func NewAuthHandler(authService *service.AuthService, portal *service.PortalUserService) *AuthHandler {
	return &AuthHandler{auth: authService, portal: portal}
}

// StaffLogin POST /auth/staff/login.
func (h *AuthHandler) StaffLogin(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := h.auth.StaffLogin(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": authResponse(result)})
}

// PortalLogin POST /auth/portal/login.
func (h *AuthHandler) PortalLogin(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := h.auth.PortalLogin(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": authResponse(result)})
}

// Logout POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.auth.Logout(c.UserContext(), p.SessionID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Me GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	resp := fiber.Map{"subject": p.SubjectType}
	if p.Staff != nil {
		resp["staff"] = dto.NewStaffUserResponse(*p.Staff)
	}
	if p.Portal != nil {
		resp["portal"] = dto.NewPortalUserResponse(*p.Portal)
	}
	return c.JSON(fiber.Map{"data": resp})
}

// LookupInvitation GET /auth/invitations/:token.
func (h *AuthHandler) LookupInvitation(c *fiber.Ctx) error {
	user, err := h.portal.LookupInvitation(c.Params("token"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPortalUserResponse(user)})
}

// RedeemInvitation POST /auth/invitations/redeem.
func (h *AuthHandler) RedeemInvitation(c *fiber.Ctx) error {
	var req dto.RedeemInvitationRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.portal.Redeem(c.UserContext(), req.Token, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPortalUserResponse(user)})
}

func authResponse(result service.LoginResult) dto.AuthResponse {
	resp := dto.AuthResponse{
		Token:        result.Token,
		ExpiresAt:    result.ExpiresAt,
		Subject:      result.Session.Subject,
		SessionState: result.Session.State,
		LandingRoute: result.LandingRoute,
	}
	if result.Staff != nil {
		staff := dto.NewStaffUserResponse(*result.Staff)
		resp.Staff = &staff
	}
	if result.Portal != nil {
		portal := dto.NewPortalUserResponse(*result.Portal)
		resp.Portal = &portal
	}
	return resp
}
