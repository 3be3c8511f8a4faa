package dto

import "github.com/spec-kit/helpdesk-service/internal/domain"

// LoginRequest payload shared by staff and portal login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// StaffUserResponse is a staff member without credentials.
type StaffUserResponse struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Email      string           `json:"email"`
	Role       domain.StaffRole `json:"role"`
	Department string           `json:"department"`
}

func NewStaffUserResponse(u domain.StaffUser) StaffUserResponse {
	return StaffUserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Department: u.Department,
	}
}

func NewStaffUserList(users []domain.StaffUser) []StaffUserResponse {
	out := make([]StaffUserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, NewStaffUserResponse(u))
	}
	return out
}
