package service

import (
	"github.com/spec-kit/helpdesk-service/internal/catalog"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ReachableModule joins a catalog module with the grant that unlocked it.
type ReachableModule struct {
	domain.Module
	Grant domain.ModuleGrant `json:"grant"`
}

// AccessResolver answers what a portal user may reach. Nothing is cached;
// every call reads the current access state.
type AccessResolver struct {
	state   *AccessState
	catalog *catalog.Catalog
}

func NewAccessResolver(state *AccessState, cat *catalog.Catalog) *AccessResolver {
	return &AccessResolver{state: state, catalog: cat}
}

// Loaded reports whether access data is available yet.
func (r *AccessResolver) Loaded() bool {
	return r.state.Loaded()
}

// ReachableModules lists modules with access granted, in catalog order.
// Unknown users or sets reach nothing.
func (r *AccessResolver) ReachableModules(userID string) []ReachableModule {
	grants, ok := r.grantsFor(userID)
	if !ok {
		return nil
	}
	var out []ReachableModule
	for _, m := range r.catalog.List() {
		grant, ok := grants[m.ID]
		if !ok || !grant.Access {
			continue
		}
		out = append(out, ReachableModule{Module: m, Grant: grant.Effective()})
	}
	return out
}

// IsRouteAllowed reports whether some reachable module matches path.
func (r *AccessResolver) IsRouteAllowed(userID, path string) bool {
	for _, rm := range r.ReachableModules(userID) {
		if rm.MatchesPath(path) {
			return true
		}
	}
	return false
}

// DefaultLandingRoute is the first reachable module's route, or empty.
func (r *AccessResolver) DefaultLandingRoute(userID string) string {
	modules := r.ReachableModules(userID)
	if len(modules) == 0 {
		return ""
	}
	return modules[0].Route
}

// HasPermission checks one action on one module. Flags other than access
// count only when access is granted.
func (r *AccessResolver) HasPermission(userID, moduleID string, action domain.Action) bool {
	grants, ok := r.grantsFor(userID)
	if !ok {
		return false
	}
	return grants[moduleID].Allows(action)
}

// ModuleForRoute finds the first catalog module matching path.
func (r *AccessResolver) ModuleForRoute(path string) (domain.Module, bool) {
	for _, m := range r.catalog.List() {
		if m.MatchesPath(path) {
			return m, true
		}
	}
	return domain.Module{}, false
}

func (r *AccessResolver) grantsFor(userID string) (domain.ModuleGrants, bool) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()
	user, ok := r.state.userByIDLocked(userID)
	if !ok {
		return nil, false
	}
	set, ok := r.state.setByIDLocked(user.PermissionSetID)
	if !ok {
		return nil, false
	}
	return set.Modules.Clone(), true
}
