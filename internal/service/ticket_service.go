package service

import (
	"context"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const (
	historyActor   = "System"
	dateLayout     = "2006-01-02"
	copySuffix     = " (Copy)"
	SyncQueued     = "queued"
	SyncNotQueued  = "warning"
	deptITAlias    = "IT"
	deptITICTAlias = "IT (ICT)"
)

// SyncStatusSource reports outbox delivery per ticket.
type SyncStatusSource interface {
	Status(ticketID string) (domain.SyncStatus, bool)
}

// SyncNotice tells the caller whether the external mirror was scheduled.
// A warning never means the local change failed.
type SyncNotice struct {
	Status  string `json:"status"`
	Warning string `json:"warning,omitempty"`
}

// TicketService owns the ticket collection.
type TicketService struct {
	mu       sync.RWMutex
	tickets  []domain.Ticket
	sequence int

	repo       repository.TicketRepository
	dispatcher events.Dispatcher
	syncStatus SyncStatusSource
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	SyncStatus SyncStatusSource
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Now        func() time.Time
}

// TicketInput describes a new ticket. Transport layers map their payloads onto it.
type TicketInput struct {
	TicketDate  string
	RequestedBy string `validate:"required"`
	Department  string
	ToDept      string                `validate:"required"`
	Description string                `validate:"required"`
	Priority    domain.TicketPriority `validate:"omitempty,oneof=Low Medium High Critical"`
	AssignedTo  string
	Remarks     string
}

// TicketPatch lists the fields an update may change. Nil means unchanged.
type TicketPatch struct {
	TicketDate   *string
	RequestedBy  *string
	Department   *string
	ToDept       *string
	Description  *string
	Priority     *domain.TicketPriority
	Status       *domain.TicketStatus
	AssignedTo   *string
	AssignedDate *string
	CompletedBy  *string
	CompletedOn  *string
	Remarks      *string
}

// TicketFilter narrows List. Zero values match everything.
type TicketFilter struct {
	Status domain.TicketStatus
	ToDept string
	Search string
	// Departments restricts results to tickets routed to one of these
	// departments. Empty means no restriction.
	Departments []string
}

// DepartmentStats counts tickets routed to one department.
type DepartmentStats struct {
	Requested int `json:"requested"`
	Assigned  int `json:"assigned"`
	Completed int `json:"completed"`
}

// TicketStatistics is the dashboard summary.
type TicketStatistics struct {
	TotalRequested  int                        `json:"totalRequested"`
	TotalInProgress int                        `json:"totalInProgress"`
	TotalCompleted  int                        `json:"totalCompleted"`
	PerDepartment   map[string]DepartmentStats `json:"perDepartment"`
}

// NewTicketService constructs the service. Call Load before use.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		repo:       deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		syncStatus: deps.SyncStatus,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        now,
	}
}

// Load reads tickets and the number high-water mark from storage.
func (s *TicketService) Load(ctx context.Context) error {
	tickets, _, err := s.repo.LoadAll(ctx)
	if err != nil {
		return err
	}
	seq, err := s.repo.LoadSequence(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets = tickets
	s.sequence = seq
	s.logger.Info("tickets loaded", zap.Int("count", len(tickets)), zap.Int("sequence", seq))
	return nil
}

// NextTicketNumber returns the number the next created ticket will receive.
func (s *TicketService) NextTicketNumber() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextNumberLocked()
}

// Create stores a new ticket at the head of the collection and schedules its
// external mirror.
func (s *TicketService) Create(ctx context.Context, input TicketInput) (domain.Ticket, SyncNotice, error) {
	input = trimInput(input)
	if err := apperrors.ValidateStruct(input); err != nil {
		return domain.Ticket{}, SyncNotice{}, err
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityLow
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	date := input.TicketDate
	if date == "" {
		date = now.Format(dateLayout)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return domain.Ticket{}, SyncNotice{}, apperrors.NewInternalError(err)
	}
	number := s.nextNumberLocked()
	ticket := domain.Ticket{
		ID:          id.String(),
		TicketNo:    strconv.Itoa(number),
		TicketDate:  date,
		RequestedBy: input.RequestedBy,
		Department:  input.Department,
		ToDept:      input.ToDept,
		Description: input.Description,
		Priority:    priority,
		Status:      domain.TicketStatusRequested,
		AssignedTo:  input.AssignedTo,
		Remarks:     input.Remarks,
		History: []domain.HistoryEntry{{
			Action: "Created",
			Date:   now.UTC().Format(time.RFC3339Nano),
			User:   historyActor,
		}},
	}

	next := make([]domain.Ticket, 0, len(s.tickets)+1)
	next = append(next, ticket)
	next = append(next, s.tickets...)
	if err := s.commitLocked(ctx, next, number); err != nil {
		return domain.Ticket{}, SyncNotice{}, err
	}

	s.metrics.RecordMutation("ticket", "create")
	s.logger.Info("ticket created", zap.String("ticket_id", ticket.ID), zap.String("ticket_no", ticket.TicketNo))
	notice := s.publishLocked(ctx, events.EventTicketCreated, ticket)
	return ticket.Clone(), notice, nil
}

// Update merges patch into the ticket. A status change is recorded in history.
func (s *TicketService) Update(ctx context.Context, id string, patch TicketPatch, actor string) (domain.Ticket, SyncNotice, error) {
	if patch.Priority != nil && !patch.Priority.Valid() {
		return domain.Ticket{}, SyncNotice{}, apperrors.NewValidationError("invalid priority",
			map[string]any{"priority": *patch.Priority})
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return domain.Ticket{}, SyncNotice{}, apperrors.NewValidationError("invalid status",
			map[string]any{"status": *patch.Status})
	}
	for field, v := range map[string]*string{"requestedBy": patch.RequestedBy, "toDept": patch.ToDept, "description": patch.Description} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return domain.Ticket{}, SyncNotice{}, apperrors.NewValidationError("field '"+field+"' is required",
				map[string]any{field: "required"})
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOfTicket(s.tickets, id)
	if i < 0 {
		return domain.Ticket{}, SyncNotice{}, apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	ticket := s.tickets[i].Clone()
	previous := ticket.Status
	applyPatch(&ticket, patch)
	if ticket.Status != previous {
		if actor == "" {
			actor = historyActor
		}
		ticket.History = append(ticket.History, domain.HistoryEntry{
			Action: "Status changed to " + string(ticket.Status),
			Date:   s.now().UTC().Format(time.RFC3339Nano),
			User:   actor,
		})
	}

	next := append([]domain.Ticket(nil), s.tickets...)
	next[i] = ticket
	if err := s.commitLocked(ctx, next, s.sequence); err != nil {
		return domain.Ticket{}, SyncNotice{}, err
	}

	s.metrics.RecordMutation("ticket", "update")
	notice := s.publishLocked(ctx, events.EventTicketUpdated, ticket)
	return ticket.Clone(), notice, nil
}

// Delete removes the ticket. Its number is never handed out again.
func (s *TicketService) Delete(ctx context.Context, id string) (SyncNotice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOfTicket(s.tickets, id)
	if i < 0 {
		return SyncNotice{}, apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	removed := s.tickets[i]
	next := make([]domain.Ticket, 0, len(s.tickets)-1)
	next = append(next, s.tickets[:i]...)
	next = append(next, s.tickets[i+1:]...)
	if err := s.commitLocked(ctx, next, s.sequence); err != nil {
		return SyncNotice{}, err
	}

	s.metrics.RecordMutation("ticket", "delete")
	s.logger.Info("ticket deleted", zap.String("ticket_id", id), zap.String("ticket_no", removed.TicketNo))
	return s.publishLocked(ctx, events.EventTicketDeleted, removed), nil
}

// Duplicate creates a fresh ticket from an existing one, dated today.
func (s *TicketService) Duplicate(ctx context.Context, id string) (domain.Ticket, SyncNotice, error) {
	src, err := s.Get(id)
	if err != nil {
		return domain.Ticket{}, SyncNotice{}, err
	}
	return s.Create(ctx, TicketInput{
		RequestedBy: src.RequestedBy,
		Department:  src.Department,
		ToDept:      src.ToDept,
		Description: src.Description + copySuffix,
		Priority:    src.Priority,
		AssignedTo:  src.AssignedTo,
		Remarks:     src.Remarks,
	})
}

// Get returns a ticket by id.
func (s *TicketService) Get(id string) (domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexOfTicket(s.tickets, id)
	if i < 0 {
		return domain.Ticket{}, apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	return s.tickets[i].Clone(), nil
}

// List returns matching tickets, newest first.
func (s *TicketService) List(filter TicketFilter) []domain.Ticket {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	dept := ""
	if filter.ToDept != "" {
		dept = NormalizeDepartment(filter.ToDept)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if dept != "" && NormalizeDepartment(t.ToDept) != dept {
			continue
		}
		if len(filter.Departments) > 0 && !slices.Contains(filter.Departments, NormalizeDepartment(t.ToDept)) {
			continue
		}
		if search != "" && !matchesSearch(t, search) {
			continue
		}
		out = append(out, t.Clone())
	}
	return out
}

// Statistics scans every ticket. IT aliases are folded into ICT and the four
// standard departments are always present.
func (s *TicketService) Statistics() TicketStatistics {
	stats := TicketStatistics{PerDepartment: map[string]DepartmentStats{
		domain.DepartmentBioMedical:   {},
		domain.DepartmentICT:          {},
		domain.DepartmentMaintenance:  {},
		domain.DepartmentHouseKeeping: {},
	}}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tickets {
		key := NormalizeDepartment(t.ToDept)
		dept := stats.PerDepartment[key]
		switch t.Status {
		case domain.TicketStatusRequested:
			stats.TotalRequested++
			dept.Requested++
		case domain.TicketStatusAssigned, domain.TicketStatusWorkInProgress:
			stats.TotalInProgress++
			dept.Assigned++
		case domain.TicketStatusCompleted, domain.TicketStatusClosed:
			stats.TotalCompleted++
			dept.Completed++
		}
		if key != "" {
			stats.PerDepartment[key] = dept
		}
	}
	return stats
}

// SyncStatus reports the external mirror state for a ticket.
func (s *TicketService) SyncStatus(id string) (domain.SyncStatus, error) {
	if _, err := s.Get(id); err != nil {
		return domain.SyncStatus{}, err
	}
	if s.syncStatus == nil {
		return domain.SyncStatus{TicketID: id, Targets: map[string]domain.SyncTargetStatus{}}, nil
	}
	st, ok := s.syncStatus.Status(id)
	if !ok {
		return domain.SyncStatus{TicketID: id, Targets: map[string]domain.SyncTargetStatus{}}, nil
	}
	return st, nil
}

func (s *TicketService) nextNumberLocked() int {
	highest := s.sequence
	for _, t := range s.tickets {
		if n, err := strconv.Atoi(strings.TrimSpace(t.TicketNo)); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1
}

// commitLocked writes the high-water mark and then the collection. Memory is
// only swapped once both writes succeed.
func (s *TicketService) commitLocked(ctx context.Context, next []domain.Ticket, sequence int) error {
	if sequence > s.sequence {
		if err := s.repo.SaveSequence(ctx, sequence); err != nil {
			return err
		}
	}
	if err := s.repo.ReplaceAll(ctx, next); err != nil {
		return err
	}
	if sequence > s.sequence {
		s.sequence = sequence
	}
	s.tickets = next
	return nil
}

// publishLocked runs while the ticket lock is held so changes to one ticket
// reach subscribers in commit order.
func (s *TicketService) publishLocked(ctx context.Context, eventType events.EventType, ticket domain.Ticket) SyncNotice {
	if s.dispatcher == nil {
		return SyncNotice{Status: SyncNotQueued, Warning: "sync disabled"}
	}
	err := s.dispatcher.Publish(ctx, events.Event{
		Type:     eventType,
		EntityID: ticket.ID,
		Payload:  events.TicketPayload{Ticket: ticket.Clone()},
	})
	if err != nil {
		s.logger.Warn("ticket sync not scheduled",
			zap.String("ticket_id", ticket.ID),
			zap.String("event", string(eventType)),
			zap.Error(err))
		return SyncNotice{Status: SyncNotQueued, Warning: "external sync not scheduled: " + err.Error()}
	}
	return SyncNotice{Status: SyncQueued}
}

func applyPatch(t *domain.Ticket, p TicketPatch) {
	setString(&t.TicketDate, p.TicketDate)
	setString(&t.RequestedBy, p.RequestedBy)
	setString(&t.Department, p.Department)
	setString(&t.ToDept, p.ToDept)
	setString(&t.Description, p.Description)
	setString(&t.AssignedTo, p.AssignedTo)
	setString(&t.AssignedDate, p.AssignedDate)
	setString(&t.CompletedBy, p.CompletedBy)
	setString(&t.CompletedOn, p.CompletedOn)
	setString(&t.Remarks, p.Remarks)
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func trimInput(in TicketInput) TicketInput {
	in.TicketDate = strings.TrimSpace(in.TicketDate)
	in.RequestedBy = strings.TrimSpace(in.RequestedBy)
	in.Department = strings.TrimSpace(in.Department)
	in.ToDept = strings.TrimSpace(in.ToDept)
	in.Description = strings.TrimSpace(in.Description)
	in.AssignedTo = strings.TrimSpace(in.AssignedTo)
	in.Remarks = strings.TrimSpace(in.Remarks)
	return in
}

// NormalizeDepartment trims dept and folds the IT aliases into ICT.
func NormalizeDepartment(dept string) string {
	dept = strings.TrimSpace(dept)
	if dept == deptITAlias || dept == deptITICTAlias {
		return domain.DepartmentICT
	}
	return dept
}

func matchesSearch(t domain.Ticket, term string) bool {
	for _, field := range []string{t.TicketNo, t.RequestedBy, t.Department, t.ToDept, t.Description, t.AssignedTo, t.Remarks} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func indexOfTicket(tickets []domain.Ticket, id string) int {
	for i := range tickets {
		if tickets[i].ID == id {
			return i
		}
	}
	return -1
}

// Departments returns every department seen on tickets plus the standard four, sorted.
func (s *TicketService) Departments() []string {
	seen := map[string]struct{}{
		domain.DepartmentBioMedical:   {},
		domain.DepartmentICT:          {},
		domain.DepartmentMaintenance:  {},
		domain.DepartmentHouseKeeping: {},
	}
	s.mu.RLock()
	for _, t := range s.tickets {
		if d := NormalizeDepartment(t.ToDept); d != "" {
			seen[d] = struct{}{}
		}
	}
	s.mu.RUnlock()
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
