package http

import (
	"maps"
	"slices"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/catalog"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/observability"
)

// Module ids guarding the ticket endpoints for portal users.
const (
	moduleDashboard   = "dashboard"
	moduleTicketEntry = "ticket_entry"
	moduleAllTickets  = "all_tickets"
	moduleUsers       = "users"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Staff          *handlers.StaffHandler
	PortalUsers    *handlers.PortalUsersHandler
	PermissionSets *handlers.PermissionSetsHandler
	Navigation     *handlers.NavigationHandler
	AuthMiddleware *auth.AuthMiddleware
	Permissions    auth.PermissionChecker
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Handler())
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/staff/login", cfg.Auth.StaffLogin)
	authGroup.Post("/portal/login", cfg.Auth.PortalLogin)
	authGroup.Get("/invitations/:token", cfg.Auth.LookupInvitation)
	authGroup.Post("/invitations/redeem", cfg.Auth.RedeemInvitation)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)

	api.Get("/modules", cfg.Navigation.Catalog)
	api.Get("/navigation/menu", cfg.Navigation.Menu)
	api.Post("/navigation/decide", cfg.Navigation.Navigate)

	module := func(id string, action domain.Action) fiber.Handler {
		return auth.RequirePortalModule(cfg.Permissions, id, action)
	}
	// Department ticket modules open the shared ticket routes; the handler
	// narrows results to the granted departments.
	ticketModules := append([]string{moduleAllTickets}, slices.Sorted(maps.Values(catalog.DepartmentTicketModules()))...)
	anyTickets := func(action domain.Action) fiber.Handler {
		return auth.RequireAnyPortalModule(cfg.Permissions, action, ticketModules...)
	}
	statsModules := append([]string{moduleDashboard}, catalog.ReportModules()...)

	tickets := api.Group("/tickets")
	tickets.Get("/", anyTickets(domain.ActionView), cfg.Tickets.ListTickets)
	tickets.Post("/", module(moduleTicketEntry, domain.ActionAccess), cfg.Tickets.CreateTicket)
	tickets.Get("/stats", auth.RequireAnyPortalModule(cfg.Permissions, domain.ActionView, statsModules...), cfg.Tickets.Statistics)
	tickets.Get("/next-number", module(moduleTicketEntry, domain.ActionAccess), cfg.Tickets.NextNumber)
	tickets.Get("/departments", module(moduleTicketEntry, domain.ActionAccess), cfg.Tickets.Departments)
	tickets.Get("/:id", anyTickets(domain.ActionView), cfg.Tickets.GetTicket)
	tickets.Get("/:id/sync", anyTickets(domain.ActionView), cfg.Tickets.SyncStatus)
	tickets.Patch("/:id", anyTickets(domain.ActionEdit), cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", anyTickets(domain.ActionDelete), cfg.Tickets.DeleteTicket)
	tickets.Post("/:id/duplicate", anyTickets(domain.ActionMore), cfg.Tickets.DuplicateTicket)

	staff := api.Group("/staff", auth.RequireStaffRole(domain.StaffRoleAdmin))
	staff.Get("/", cfg.Staff.List)
	staff.Post("/", cfg.Staff.Create)
	staff.Delete("/:id", cfg.Staff.Delete)

	userView := auth.RequireAdminOrModule(cfg.Permissions, moduleUsers, domain.ActionView)
	userEdit := auth.RequireAdminOrModule(cfg.Permissions, moduleUsers, domain.ActionEdit)
	userDelete := auth.RequireAdminOrModule(cfg.Permissions, moduleUsers, domain.ActionDelete)

	portalUsers := api.Group("/portal-users")
	portalUsers.Get("/", userView, cfg.PortalUsers.List)
	portalUsers.Get("/:id", userView, cfg.PortalUsers.Get)
	portalUsers.Post("/", userEdit, cfg.PortalUsers.Invite)
	portalUsers.Put("/:id/permission", userEdit, cfg.PortalUsers.UpdatePermission)
	portalUsers.Post("/:id/suspend", userEdit, cfg.PortalUsers.Suspend)
	portalUsers.Post("/:id/reactivate", userEdit, cfg.PortalUsers.Reactivate)
	portalUsers.Delete("/:id", userDelete, cfg.PortalUsers.Remove)

	sets := api.Group("/permission-sets")
	sets.Get("/", userView, cfg.PermissionSets.List)
	sets.Get("/:id", userView, cfg.PermissionSets.Get)
	sets.Post("/", userEdit, cfg.PermissionSets.Create)
	sets.Patch("/:id", userEdit, cfg.PermissionSets.Update)
	sets.Delete("/:id", userDelete, cfg.PermissionSets.Delete)
}
