package domain

import "time"

// DefaultPermissionSetID identifies the built-in profile that can never be deleted.
const DefaultPermissionSetID = "customer"

// Action names one capability flag within a grant.
type Action string

const (
	ActionAccess Action = "access"
	ActionView   Action = "view"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionMore   Action = "more"
)

// ModuleGrant is the five-flag capability tuple for one module.
type ModuleGrant struct {
	Access bool `json:"access"`
	View   bool `json:"view"`
	Edit   bool `json:"edit"`
	Delete bool `json:"delete"`
	More   bool `json:"more"`
}

// Effective returns the grant as consumers must read it: without access,
// every other flag is false regardless of what was stored.
func (g ModuleGrant) Effective() ModuleGrant {
	if !g.Access {
		return ModuleGrant{}
	}
	return g
}

// Allows reports whether the effective grant includes action.
func (g ModuleGrant) Allows(action Action) bool {
	eff := g.Effective()
	switch action {
	case ActionAccess:
		return eff.Access
	case ActionView:
		return eff.View
	case ActionEdit:
		return eff.Edit
	case ActionDelete:
		return eff.Delete
	case ActionMore:
		return eff.More
	default:
		return false
	}
}

// ModuleGrants maps module id to grant.
type ModuleGrants map[string]ModuleGrant

// Clone returns a structural copy so callers never alias stored grants.
func (m ModuleGrants) Clone() ModuleGrants {
	if m == nil {
		return ModuleGrants{}
	}
	out := make(ModuleGrants, len(m))
	for id, grant := range m {
		out[id] = grant
	}
	return out
}

// PermissionSet is a named bundle of per-module grants (a profile).
type PermissionSet struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	IsDefault   bool         `json:"isDefault"`
	Modules     ModuleGrants `json:"modules"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Clone deep-copies the set including its grant map.
func (p PermissionSet) Clone() PermissionSet {
	p.Modules = p.Modules.Clone()
	return p
}

// DefaultPermissionSet builds the starter customer profile.
func DefaultPermissionSet(now time.Time) PermissionSet {
	return PermissionSet{
		ID:          DefaultPermissionSetID,
		Name:        "Customer",
		Description: "This is the default profile having only add and view permission.",
		IsDefault:   true,
		Modules: ModuleGrants{
			"ticket_entry": {Access: true, View: true},
			"all_tickets":  {Access: true, View: true},
		},
		CreatedAt: now,
	}
}
