package handlers

import (
	"slices"
	"sort"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/catalog"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const moduleAllTickets = "all_tickets"

// TicketsHandler manages ticket endpoints for staff and portal users.
// Portal users without all_tickets only see departments whose ticket
// module they hold.
type TicketsHandler struct {
	service     *service.TicketService
	permissions auth.PermissionChecker
	departments map[string]string
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, permissions auth.PermissionChecker) *TicketsHandler {
	return &TicketsHandler{
		service:     ticketService,
		permissions: permissions,
		departments: catalog.DepartmentTicketModules(),
	}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, notice, err := h.service.Create(c.UserContext(), req.Input())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.TicketResponse{Ticket: ticket, Sync: notice}})
}

// ListTickets GET /tickets?status=&toDept=&search=.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	scope, err := h.departmentScope(c, domain.ActionView)
	if err != nil {
		return err
	}
	filter := service.TicketFilter{
		Status:      domain.TicketStatus(c.Query("status")),
		ToDept:      c.Query("toDept"),
		Search:      c.Query("search"),
		Departments: scope,
	}
	if filter.ToDept != "" {
		if err := checkDepartment(scope, filter.ToDept); err != nil {
			return err
		}
	}
	return c.JSON(fiber.Map{"data": h.service.List(filter)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.scopedTicket(c, domain.ActionView)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticket})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	scope, err := h.departmentScope(c, domain.ActionEdit)
	if err != nil {
		return err
	}
	current, err := h.service.Get(c.Params("id"))
	if err != nil {
		return err
	}
	if err := checkDepartment(scope, current.ToDept); err != nil {
		return err
	}
	if req.ToDept != nil {
		if err := checkDepartment(scope, *req.ToDept); err != nil {
			return err
		}
	}
	ticket, notice, err := h.service.Update(c.UserContext(), c.Params("id"), req.Patch(), p.DisplayName())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketResponse{Ticket: ticket, Sync: notice}})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	if _, err := h.scopedTicket(c, domain.ActionDelete); err != nil {
		return err
	}
	notice, err := h.service.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": c.Params("id"), "sync": notice}})
}

// DuplicateTicket POST /tickets/:id/duplicate.
func (h *TicketsHandler) DuplicateTicket(c *fiber.Ctx) error {
	if _, err := h.scopedTicket(c, domain.ActionMore); err != nil {
		return err
	}
	ticket, notice, err := h.service.Duplicate(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.TicketResponse{Ticket: ticket, Sync: notice}})
}

// Statistics GET /tickets/stats.
func (h *TicketsHandler) Statistics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.service.Statistics()})
}

// NextNumber GET /tickets/next-number.
func (h *TicketsHandler) NextNumber(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": fiber.Map{"ticketNo": h.service.NextTicketNumber()}})
}

// Departments GET /tickets/departments.
func (h *TicketsHandler) Departments(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.service.Departments()})
}

// SyncStatus GET /tickets/:id/sync.
func (h *TicketsHandler) SyncStatus(c *fiber.Ctx) error {
	if _, err := h.scopedTicket(c, domain.ActionView); err != nil {
		return err
	}
	status, err := h.service.SyncStatus(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": status})
}

// departmentScope returns the departments the caller may act on. Nil means
// every department.
func (h *TicketsHandler) departmentScope(c *fiber.Ctx, action domain.Action) ([]string, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	if p.Portal == nil || h.permissions.HasPermission(p.Portal.ID, moduleAllTickets, action) {
		return nil, nil
	}
	var scope []string
	for dept, moduleID := range h.departments {
		if h.permissions.HasPermission(p.Portal.ID, moduleID, action) {
			scope = append(scope, dept)
		}
	}
	if len(scope) == 0 {
		return nil, apperrors.NewDomainError(apperrors.CodeForbidden, "permission denied", fiber.StatusForbidden,
			map[string]any{"action": action})
	}
	sort.Strings(scope)
	return scope, nil
}

func (h *TicketsHandler) scopedTicket(c *fiber.Ctx, action domain.Action) (domain.Ticket, error) {
	scope, err := h.departmentScope(c, action)
	if err != nil {
		return domain.Ticket{}, err
	}
	ticket, err := h.service.Get(c.Params("id"))
	if err != nil {
		return domain.Ticket{}, err
	}
	if err := checkDepartment(scope, ticket.ToDept); err != nil {
		return domain.Ticket{}, err
	}
	return ticket, nil
}

func checkDepartment(scope []string, dept string) error {
	if scope == nil || slices.Contains(scope, service.NormalizeDepartment(dept)) {
		return nil
	}
	return apperrors.NewDomainError(apperrors.CodeForbidden, "department not permitted", fiber.StatusForbidden,
		map[string]any{"department": dept})
}
