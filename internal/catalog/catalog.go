// Package catalog holds the static registry of routable application modules.
// A module missing from the catalog can never be reached by a portal user,
// whatever their permission set grants.
package catalog

import "github.com/spec-kit/helpdesk-service/internal/domain"

// Catalog is an immutable, ordered list of modules.
type Catalog struct {
	modules []domain.Module
	index   map[string]int
}

// New builds a catalog preserving the given order. Later duplicates of an id are ignored.
func New(modules ...domain.Module) *Catalog {
	c := &Catalog{index: make(map[string]int, len(modules))}
	for _, m := range modules {
		if _, dup := c.index[m.ID]; dup {
			continue
		}
		c.index[m.ID] = len(c.modules)
		c.modules = append(c.modules, m)
	}
	return c
}

// Default returns the catalog of every screen the portal exposes.
func Default() *Catalog {
	return New(
		domain.Module{ID: "dashboard", DisplayName: "Dashboard", Route: "/", ExactMatch: true},
		domain.Module{ID: "ticket_entry", DisplayName: "Ticket Entry Form", Route: "/tickets/new", ExactMatch: true},
		domain.Module{ID: "all_tickets", DisplayName: "All Tickets", Route: "/tickets", ExactMatch: true},
		domain.Module{ID: "biomedical_tickets", DisplayName: "Bio-Medical Tickets", Route: "/tickets/biomedical", ExactMatch: true},
		domain.Module{ID: "ict_tickets", DisplayName: "ICT Tickets", Route: "/tickets/ict", ExactMatch: true},
		domain.Module{ID: "maintenance_tickets", DisplayName: "Maintenance Tickets", Route: "/tickets/maintenance", ExactMatch: true},
		domain.Module{ID: "housekeeping_tickets", DisplayName: "House Keeping Tickets", Route: "/tickets/housekeeping", ExactMatch: true},
		domain.Module{ID: "reports", DisplayName: "Reports", Route: "/reports", ExactMatch: true},
		domain.Module{ID: "it_report", DisplayName: "IT Report", Route: "/reports/it", ExactMatch: true},
		domain.Module{ID: "biomedical_report", DisplayName: "Bio-Medical Report", Route: "/reports/biomedical", ExactMatch: true},
		domain.Module{ID: "maintenance_report", DisplayName: "Maintenance Report", Route: "/reports/maintenance", ExactMatch: true},
		domain.Module{ID: "housekeeping_report", DisplayName: "House Keeping Report", Route: "/reports/housekeeping", ExactMatch: true},
		domain.Module{ID: "users", DisplayName: "User Management", Route: "/users", ExactMatch: true},
		domain.Module{ID: "settings", DisplayName: "Settings", Route: "/settings", ExactMatch: true},
		domain.Module{ID: "purchases", DisplayName: "Purchases", Route: "/purchases", ExactMatch: true},
	)
}

// DepartmentTicketModules maps each standard destination department to the
// module listing its tickets.
func DepartmentTicketModules() map[string]string {
	return map[string]string{
		domain.DepartmentBioMedical:   "biomedical_tickets",
		domain.DepartmentICT:          "ict_tickets",
		domain.DepartmentMaintenance:  "maintenance_tickets",
		domain.DepartmentHouseKeeping: "housekeeping_tickets",
	}
}

// ReportModules lists the report module ids, the overview first.
func ReportModules() []string {
	return []string{"reports", "it_report", "biomedical_report", "maintenance_report", "housekeeping_report"}
}

// List returns the modules in catalog order. The slice is a copy.
func (c *Catalog) List() []domain.Module {
	return append([]domain.Module(nil), c.modules...)
}

// Find looks a module up by id.
func (c *Catalog) Find(id string) (domain.Module, bool) {
	i, ok := c.index[id]
	if !ok {
		return domain.Module{}, false
	}
	return c.modules[i], true
}

// Contains reports whether id is a known module.
func (c *Catalog) Contains(id string) bool {
	_, ok := c.index[id]
	return ok
}
