package domain

import "time"

// PortalUserStatus represents lifecycle states for invited accounts.
type PortalUserStatus string

const (
	PortalUserStatusInvited   PortalUserStatus = "invited"
	PortalUserStatusActive    PortalUserStatus = "active"
	PortalUserStatusSuspended PortalUserStatus = "suspended"
)

// PortalUser is an externally invited account subject to module access control.
type PortalUser struct {
	ID              string           `json:"id"`
	Email           string           `json:"email"`
	PermissionSetID string           `json:"permissionProfile"`
	Status          PortalUserStatus `json:"status"`
	InvitationToken string           `json:"invitationToken"`
	InvitedAt       time.Time        `json:"invitedAt"`
	ActivatedAt     *time.Time       `json:"activatedAt,omitempty"`
	PasswordHash    string           `json:"passwordHash,omitempty"`
}
