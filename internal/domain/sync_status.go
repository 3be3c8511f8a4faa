package domain

import "time"

// SyncState is the delivery state of one mirrored change.
type SyncState string

const (
	SyncStatePending SyncState = "pending"
	SyncStateSynced  SyncState = "synced"
	SyncStateFailed  SyncState = "failed"
)

// SyncTargetStatus describes the latest change sent to one external target.
type SyncTargetStatus struct {
	Operation string    `json:"operation"`
	State     SyncState `json:"state"`
	Error     string    `json:"error,omitempty"`
	Attempts  int       `json:"attempts"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SyncStatus aggregates per-target delivery for one ticket.
type SyncStatus struct {
	TicketID string                      `json:"ticketId"`
	Targets  map[string]SyncTargetStatus `json:"targets"`
}
