package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestReachableModulesFollowCatalogOrder(t *testing.T) {
	f := newAccessFixture(t)
	ctx := context.Background()
	set, err := f.sets.Create(ctx, PermissionSetInput{Name: "Mixed", Modules: domain.ModuleGrants{
		"users":     {Access: true, Edit: true},
		"dashboard": {Access: true, View: true},
		"reports":   {Access: false, View: true, Edit: true},
	}})
	require.NoError(t, err)
	user, _, err := f.users.Invite(ctx, "a@example.com", set.ID)
	require.NoError(t, err)

	reachable := f.resolver.ReachableModules(user.ID)
	require.Len(t, reachable, 2)
	assert.Equal(t, "dashboard", reachable[0].ID)
	assert.Equal(t, "users", reachable[1].ID)
	assert.Equal(t, "/", f.resolver.DefaultLandingRoute(user.ID))

	assert.True(t, f.resolver.IsRouteAllowed(user.ID, "/"))
	assert.True(t, f.resolver.IsRouteAllowed(user.ID, "/users"))
	assert.False(t, f.resolver.IsRouteAllowed(user.ID, "/reports"))
	assert.False(t, f.resolver.IsRouteAllowed(user.ID, "/users/7"))
}

func TestHasPermissionRequiresAccess(t *testing.T) {
	f := newAccessFixture(t)
	ctx := context.Background()
	set, err := f.sets.Create(ctx, PermissionSetInput{Name: "Odd", Modules: domain.ModuleGrants{
		"reports":     {Access: false, View: true, Edit: true},
		"all_tickets": {Access: true, View: true},
	}})
	require.NoError(t, err)
	user, _, err := f.users.Invite(ctx, "a@example.com", set.ID)
	require.NoError(t, err)

	assert.False(t, f.resolver.HasPermission(user.ID, "reports", domain.ActionEdit))
	assert.True(t, f.resolver.HasPermission(user.ID, "all_tickets", domain.ActionView))
	assert.False(t, f.resolver.HasPermission(user.ID, "all_tickets", domain.ActionDelete))
	assert.False(t, f.resolver.HasPermission("ghost", "all_tickets", domain.ActionView))
}

func TestCustomerLandsOnTicketEntry(t *testing.T) {
	f := newAccessFixture(t)
	user, _, err := f.users.Invite(context.Background(), "a@example.com", "")
	require.NoError(t, err)

	reachable := f.resolver.ReachableModules(user.ID)
	require.Len(t, reachable, 2)
	assert.Equal(t, "ticket_entry", reachable[0].ID)
	assert.Equal(t, "all_tickets", reachable[1].ID)
	assert.Equal(t, "/tickets/new", f.resolver.DefaultLandingRoute(user.ID))
	assert.False(t, f.resolver.IsRouteAllowed(user.ID, "/"))
}

func TestUnknownUserReachesNothing(t *testing.T) {
	f := newAccessFixture(t)

	assert.Empty(t, f.resolver.ReachableModules("ghost"))
	assert.Equal(t, "", f.resolver.DefaultLandingRoute("ghost"))
	assert.True(t, f.resolver.Loaded())
}

func TestModuleForRoute(t *testing.T) {
	f := newAccessFixture(t)

	m, ok := f.resolver.ModuleForRoute("/tickets/ict")
	require.True(t, ok)
	assert.Equal(t, "ict_tickets", m.ID)

	_, ok = f.resolver.ModuleForRoute("/nowhere")
	assert.False(t, ok)
}

func TestGrantChangesApplyImmediately(t *testing.T) {
	f := newAccessFixture(t)
	ctx := context.Background()
	set, err := f.sets.Create(ctx, PermissionSetInput{Name: "Growing"})
	require.NoError(t, err)
	user, _, err := f.users.Invite(ctx, "a@example.com", set.ID)
	require.NoError(t, err)
	assert.Empty(t, f.resolver.ReachableModules(user.ID))

	_, err = f.sets.Update(ctx, set.ID, PermissionSetPatch{Modules: domain.ModuleGrants{"purchases": {Access: true}}})
	require.NoError(t, err)
	assert.True(t, f.resolver.IsRouteAllowed(user.ID, "/purchases"))
}
