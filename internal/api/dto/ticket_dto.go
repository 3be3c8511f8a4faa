package dto

import (
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	TicketDate  string                `json:"ticketDate"`
	RequestedBy string                `json:"requestedBy" validate:"required"`
	Department  string                `json:"department"`
	ToDept      string                `json:"toDept" validate:"required"`
	Description string                `json:"description" validate:"required"`
	Priority    domain.TicketPriority `json:"priority" validate:"omitempty,oneof=Low Medium High Critical"`
	AssignedTo  string                `json:"assignedTo"`
	Remarks     string                `json:"remarks"`
}

// Input converts the request into a service input.
func (r CreateTicketRequest) Input() service.TicketInput {
	return service.TicketInput{
		TicketDate:  r.TicketDate,
		RequestedBy: r.RequestedBy,
		Department:  r.Department,
		ToDept:      r.ToDept,
		Description: r.Description,
		Priority:    r.Priority,
		AssignedTo:  r.AssignedTo,
		Remarks:     r.Remarks,
	}
}

// UpdateTicketRequest payload. Omitted fields are kept.
type UpdateTicketRequest struct {
	TicketDate   *string                `json:"ticketDate"`
	RequestedBy  *string                `json:"requestedBy" validate:"omitempty,min=1"`
	Department   *string                `json:"department"`
	ToDept       *string                `json:"toDept" validate:"omitempty,min=1"`
	Description  *string                `json:"description" validate:"omitempty,min=1"`
	Priority     *domain.TicketPriority `json:"priority" validate:"omitempty,oneof=Low Medium High Critical"`
	Status       *domain.TicketStatus   `json:"status"`
	AssignedTo   *string                `json:"assignedTo"`
	AssignedDate *string                `json:"assignedDate"`
	CompletedBy  *string                `json:"completedBy"`
	CompletedOn  *string                `json:"completedOn"`
	Remarks      *string                `json:"remarks"`
}

// Patch converts the request into a service patch.
func (r UpdateTicketRequest) Patch() service.TicketPatch {
	return service.TicketPatch{
		TicketDate:   r.TicketDate,
		RequestedBy:  r.RequestedBy,
		Department:   r.Department,
		ToDept:       r.ToDept,
		Description:  r.Description,
		Priority:     r.Priority,
		Status:       r.Status,
		AssignedTo:   r.AssignedTo,
		AssignedDate: r.AssignedDate,
		CompletedBy:  r.CompletedBy,
		CompletedOn:  r.CompletedOn,
		Remarks:      r.Remarks,
	}
}

// TicketResponse pairs a mutated ticket with its sync notice.
type TicketResponse struct {
	Ticket domain.Ticket      `json:"ticket"`
	Sync   service.SyncNotice `json:"sync"`
}
