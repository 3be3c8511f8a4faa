package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

type fakeAccess struct {
	loaded  bool
	allowed map[string]bool
	landing string
}

func (f *fakeAccess) Loaded() bool { return f.loaded }

func (f *fakeAccess) IsRouteAllowed(userID, path string) bool { return f.allowed[path] }

func (f *fakeAccess) DefaultLandingRoute(userID string) string { return f.landing }

func newTestGuard(t *testing.T, access *fakeAccess) (*Guard, *persistence.MemoryKV) {
	kv := persistence.NewMemoryKV()
	return NewGuard(NewSessionStore(kv, 0), access, zaptest.NewLogger(t)), kv
}

func TestUnauthenticatedRedirectsToLogin(t *testing.T) {
	g, _ := newTestGuard(t, &fakeAccess{})

	d := g.Navigate(context.Background(), "missing", "/tickets")
	assert.Equal(t, Decision{Action: ActionRedirect, Target: LoginPath, State: StateUnauthenticated}, d)

	assert.Equal(t, ActionAllow, g.Navigate(context.Background(), "", LoginPath).Action)
	assert.Equal(t, ActionAllow, g.Navigate(context.Background(), "", "/portal/setup").Action)
	assert.Equal(t, ActionAllow, g.Navigate(context.Background(), "", "/portal/setup/confirm").Action)
	assert.Equal(t, ActionRedirect, g.Navigate(context.Background(), "", "/portal/setupx").Action)
}

func TestInternalLoginAllowsEverything(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGuard(t, &fakeAccess{})

	session, err := g.Login(ctx, "staff-1", domain.SubjectTypeStaff)
	require.NoError(t, err)
	assert.Equal(t, StateInternal, session.State)

	assert.Equal(t, ActionAllow, g.Navigate(ctx, session.ID, "/settings").Action)
}

func TestPortalPendingUntilAccessLoaded(t *testing.T) {
	ctx := context.Background()
	access := &fakeAccess{allowed: map[string]bool{"/tickets": true}, landing: "/tickets/new"}
	g, _ := newTestGuard(t, access)

	session, err := g.Login(ctx, "portal-1", domain.SubjectTypePortal)
	require.NoError(t, err)
	assert.Equal(t, StatePortalPendingAccess, session.State)

	d := g.Navigate(ctx, session.ID, "/tickets")
	assert.Equal(t, ActionPending, d.Action)
	assert.Empty(t, d.Target)

	access.loaded = true
	d = g.Navigate(ctx, session.ID, "/tickets")
	assert.Equal(t, Decision{Action: ActionAllow, State: StatePortalReady}, d)

	stored, ok, err := g.Session(ctx, session.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StatePortalReady, stored.State)
}

func TestPortalReadyRedirectsToLanding(t *testing.T) {
	access := &fakeAccess{loaded: true, allowed: map[string]bool{"/tickets/new": true}, landing: "/tickets/new"}

	d := Decide(StatePortalReady, "u", "/", access)
	assert.Equal(t, Decision{Action: ActionRedirect, Target: "/tickets/new", State: StatePortalReady}, d)
}

func TestPortalReadyWithoutModulesIsForbidden(t *testing.T) {
	access := &fakeAccess{loaded: true}

	d := Decide(StatePortalReady, "u", "/", access)
	assert.Equal(t, ActionForbidden, d.Action)
	assert.Empty(t, d.Target)
}

func TestRedirectToSamePathIsForbidden(t *testing.T) {
	access := &fakeAccess{loaded: true, landing: "/reports"}

	assert.Equal(t, ActionForbidden, Decide(StatePortalReady, "u", "/reports", access).Action)
}

func TestLogoutClearsSession(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGuard(t, &fakeAccess{})

	session, err := g.Login(ctx, "staff-1", domain.SubjectTypeStaff)
	require.NoError(t, err)
	require.NoError(t, g.Logout(ctx, session.ID))

	d := g.Navigate(ctx, session.ID, "/")
	assert.Equal(t, ActionRedirect, d.Action)
	assert.Equal(t, LoginPath, d.Target)
}

func TestCorruptSessionDegradesToUnauthenticated(t *testing.T) {
	ctx := context.Background()
	g, kv := newTestGuard(t, &fakeAccess{})
	require.NoError(t, kv.Put(ctx, "session:bad", []byte("{")))

	assert.NotPanics(t, func() {
		d := g.Navigate(ctx, "bad", "/tickets")
		assert.Equal(t, StateUnauthenticated, d.State)
	})
}

func TestLoginFailsWhenStoreFails(t *testing.T) {
	g, kv := newTestGuard(t, &fakeAccess{})
	kv.SetFailPuts(errors.New("down"))

	_, err := g.Login(context.Background(), "staff-1", domain.SubjectTypeStaff)
	assert.Error(t, err)
}

func TestExpiredSessionIsDropped(t *testing.T) {
	ctx := context.Background()
	kv := persistence.NewMemoryKV()
	store := NewSessionStore(kv, time.Minute)
	g := NewGuard(store, &fakeAccess{}, zaptest.NewLogger(t))

	session, err := g.Login(ctx, "staff-1", domain.SubjectTypeStaff)
	require.NoError(t, err)
	_, ok, err := g.Session(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	store.now = func() time.Time { return session.CreatedAt.Add(2 * time.Minute) }

	assert.Equal(t, ActionRedirect, g.Navigate(ctx, session.ID, "/settings").Action)
	_, err = kv.Get(ctx, sessionKeyPrefix+session.ID)
	assert.ErrorIs(t, err, persistence.ErrKeyNotFound)
}
