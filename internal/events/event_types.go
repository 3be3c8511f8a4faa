package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated     EventType = "ticket.created"
	EventTicketUpdated     EventType = "ticket.updated"
	EventTicketDeleted     EventType = "ticket.deleted"
	EventPortalUserInvited EventType = "portal_user.invited"
)

// Event represents a domain event emitted by services after a committed write.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	EntityID  string      `json:"entity_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketPayload carries a snapshot of the ticket as stored.
type TicketPayload struct {
	Ticket domain.Ticket `json:"ticket"`
}

// PortalUserInvitedPayload carries what the invitation mail needs.
type PortalUserInvitedPayload struct {
	UserID            string `json:"user_id"`
	Email             string `json:"email"`
	PermissionSetID   string `json:"permission_set_id"`
	PermissionSetName string `json:"permission_set_name"`
	Token             string `json:"token"`
}
