package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// InvitePortalUserRequest payload. An empty profile means the default set.
type InvitePortalUserRequest struct {
	Email             string `json:"email" validate:"required,email"`
	PermissionProfile string `json:"permissionProfile"`
}

// UpdatePermissionRequest payload.
type UpdatePermissionRequest struct {
	PermissionProfile string `json:"permissionProfile" validate:"required"`
}

// PortalUserResponse never carries the credential hash or the invitation token.
type PortalUserResponse struct {
	ID                string                  `json:"id"`
	Email             string                  `json:"email"`
	PermissionProfile string                  `json:"permissionProfile"`
	Status            domain.PortalUserStatus `json:"status"`
	InvitedAt         time.Time               `json:"invitedAt"`
	ActivatedAt       *time.Time              `json:"activatedAt,omitempty"`
}

func NewPortalUserResponse(u domain.PortalUser) PortalUserResponse {
	return PortalUserResponse{
		ID:                u.ID,
		Email:             u.Email,
		PermissionProfile: u.PermissionSetID,
		Status:            u.Status,
		InvitedAt:         u.InvitedAt,
		ActivatedAt:       u.ActivatedAt,
	}
}

func NewPortalUserList(users []domain.PortalUser) []PortalUserResponse {
	out := make([]PortalUserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, NewPortalUserResponse(u))
	}
	return out
}

// InvitationResponse is returned to the admin who sent the invite. The link
// lets them share it manually when mail is simulated.
type InvitationResponse struct {
	User           PortalUserResponse `json:"user"`
	InvitationLink string             `json:"invitationLink"`
}
