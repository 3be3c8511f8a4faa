package dto

import "github.com/spec-kit/helpdesk-service/internal/domain"

// CreatePermissionSetRequest payload.
type CreatePermissionSetRequest struct {
	Name        string              `json:"name" validate:"required"`
	Description string              `json:"description"`
	Modules     domain.ModuleGrants `json:"modules"`
}

// UpdatePermissionSetRequest payload. Omitted fields are kept.
type UpdatePermissionSetRequest struct {
	Name        *string             `json:"name" validate:"omitempty,min=1"`
	Description *string             `json:"description"`
	Modules     domain.ModuleGrants `json:"modules"`
}

// PermissionSetResponse adds the number of users on the set.
type PermissionSetResponse struct {
	domain.PermissionSet
	UserCount int `json:"userCount"`
}
