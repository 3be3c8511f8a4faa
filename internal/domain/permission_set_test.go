package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestModuleGrantEffectiveMasksWithoutAccess(t *testing.T) {
	stored := ModuleGrant{Access: false, View: true, Edit: true, Delete: true, More: true}

	assert.Equal(t, ModuleGrant{}, stored.Effective())
	assert.False(t, stored.Allows(ActionView))
	assert.False(t, stored.Allows(ActionDelete))

	granted := ModuleGrant{Access: true, Edit: true}
	assert.True(t, granted.Allows(ActionEdit))
	assert.False(t, granted.Allows(ActionView))
	assert.False(t, granted.Allows(Action("unknown")))
}

func TestPermissionSetCloneDoesNotAlias(t *testing.T) {
	original := DefaultPermissionSet(time.Now())
	clone := original.Clone()

	clone.Modules["ticket_entry"] = ModuleGrant{Access: true, Edit: true}
	clone.Modules["reports"] = ModuleGrant{Access: true}

	assert.False(t, original.Modules["ticket_entry"].Edit)
	_, exists := original.Modules["reports"]
	assert.False(t, exists)
}

func TestModuleGrantsCloneNil(t *testing.T) {
	var grants ModuleGrants
	assert.NotNil(t, grants.Clone())
	assert.Empty(t, grants.Clone())
}

func TestModuleMatchesPath(t *testing.T) {
	exact := Module{ID: "all_tickets", Route: "/tickets", ExactMatch: true}
	assert.True(t, exact.MatchesPath("/tickets"))
	assert.False(t, exact.MatchesPath("/tickets/55"))

	prefix := Module{ID: "all_tickets", Route: "/tickets"}
	assert.True(t, prefix.MatchesPath("/tickets/55"))
	assert.True(t, prefix.MatchesPath("/tickets"))
	assert.False(t, prefix.MatchesPath("/reports"))

	root := Module{ID: "dashboard", Route: "/"}
	assert.True(t, root.MatchesPath("/"))
	assert.False(t, root.MatchesPath("/tickets"))
}

func TestTicketStatusAndPriorityValid(t *testing.T) {
	assert.True(t, TicketStatusWorkInProgress.Valid())
	assert.False(t, TicketStatus("Open").Valid())
	assert.True(t, TicketPriorityCritical.Valid())
	assert.False(t, TicketPriority("Urgent").Valid())
}
