package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/guard"
)

// RedeemInvitationRequest completes portal account setup.
type RedeemInvitationRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse standard response for login endpoints.
type AuthResponse struct {
	Token        string              `json:"token"`
	ExpiresAt    time.Time           `json:"expires_at"`
	Subject      domain.SubjectType  `json:"subject"`
	SessionState guard.State         `json:"session_state"`
	LandingRoute string              `json:"landing_route,omitempty"`
	Staff        *StaffUserResponse  `json:"staff,omitempty"`
	Portal       *PortalUserResponse `json:"portal,omitempty"`
}

// NavigateRequest asks the guard about a path.
type NavigateRequest struct {
	Path string `json:"path" validate:"required"`
}

// NavigationResponse is the guard decision plus the catalog module owning the
// requested path, when one does.
type NavigationResponse struct {
	guard.Decision
	Module *domain.Module `json:"module,omitempty"`
}
