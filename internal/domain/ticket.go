package domain

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusRequested      TicketStatus = "Requested"
	TicketStatusAssigned       TicketStatus = "Assigned"
	TicketStatusWorkInProgress TicketStatus = "Work in progress"
	TicketStatusCompleted      TicketStatus = "Completed"
	TicketStatusClosed         TicketStatus = "Closed"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusRequested, TicketStatusAssigned, TicketStatusWorkInProgress,
		TicketStatusCompleted, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "Low"
	TicketPriorityMedium   TicketPriority = "Medium"
	TicketPriorityHigh     TicketPriority = "High"
	TicketPriorityCritical TicketPriority = "Critical"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// Standard departments tickets are routed to.
const (
	DepartmentBioMedical   = "Bio-Medical"
	DepartmentICT          = "ICT"
	DepartmentMaintenance  = "Maintenance"
	DepartmentHouseKeeping = "House Keeping"
)

// HistoryEntry is one line of a ticket's audit trail.
type HistoryEntry struct {
	Action string `json:"action"`
	Date   string `json:"date"`
	User   string `json:"user"`
}

// Ticket is a helpdesk work item routed between departments.
type Ticket struct {
	ID           string         `json:"id"`
	TicketNo     string         `json:"ticketNo"`
	TicketDate   string         `json:"ticketDate"`
	RequestedBy  string         `json:"requestedBy"`
	Department   string         `json:"department"`
	ToDept       string         `json:"toDept"`
	Description  string         `json:"description"`
	Priority     TicketPriority `json:"priority"`
	Status       TicketStatus   `json:"status"`
	AssignedTo   string         `json:"assignedTo,omitempty"`
	AssignedDate string         `json:"assignedDate,omitempty"`
	CompletedBy  string         `json:"completedBy,omitempty"`
	CompletedOn  string         `json:"completedOn,omitempty"`
	Remarks      string         `json:"remarks,omitempty"`
	History      []HistoryEntry `json:"history"`
}

// Clone copies the ticket including its history slice.
func (t Ticket) Clone() Ticket {
	t.History = append([]HistoryEntry(nil), t.History...)
	return t
}
