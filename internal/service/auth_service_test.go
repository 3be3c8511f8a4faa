package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/guard"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

type authFixture struct {
	*accessFixture
	svc    *AuthService
	guard  *guard.Guard
	tokens *auth.TokenManager
}

func newAuthFixture(t *testing.T) *authFixture {
	access := newAccessFixture(t)
	logger := zaptest.NewLogger(t)
	g := guard.NewGuard(guard.NewSessionStore(persistence.NewMemoryKV(), time.Hour), access.resolver, logger)
	tokens := auth.NewTokenManager("test-secret", 5)
	staff := newStaffService(t, persistence.NewMemoryKV(), StaffBootstrap{AdminEmail: "admin@tenxhealth.in", AdminPassword: "changeme"})

	return &authFixture{
		accessFixture: access,
		guard:         g,
		tokens:        tokens,
		svc: NewAuthService(AuthDependencies{
			Staff:    staff,
			Portal:   access.users,
			Resolver: access.resolver,
			Guard:    g,
			Tokens:   tokens,
			Logger:   logger,
		}),
	}
}

func TestStaffLoginIssuesSessionToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	res, err := f.svc.StaffLogin(ctx, "admin@tenxhealth.in", "changeme")
	require.NoError(t, err)
	assert.Equal(t, guard.StateInternal, res.Session.State)
	assert.Equal(t, "/", res.LandingRoute)

	claims, err := f.tokens.ParseToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.Session.ID, claims.SessionID)
	assert.Equal(t, domain.SubjectTypeStaff, claims.Subject)

	require.NoError(t, f.svc.Logout(ctx, res.Session.ID))
	_, ok, err := f.guard.Session(ctx, res.Session.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStaffLoginRejectsBadPassword(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.StaffLogin(context.Background(), "admin@tenxhealth.in", "nope")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestPortalLoginIsReadyAndLands(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, token, err := f.users.Invite(ctx, "vendor@example.com", "")
	require.NoError(t, err)
	_, err = f.users.Redeem(ctx, token, "s3cret!")
	require.NoError(t, err)

	res, err := f.svc.PortalLogin(ctx, "vendor@example.com", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, guard.StatePortalReady, res.Session.State)
	assert.Equal(t, "/tickets/new", res.LandingRoute)
	require.NotNil(t, res.Portal)

	decision := f.guard.Navigate(ctx, res.Session.ID, "/users")
	assert.Equal(t, guard.ActionRedirect, decision.Action)
	assert.Equal(t, "/tickets/new", decision.Target)
}

func TestPortalLoginBeforeRedeemFails(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, _, err := f.users.Invite(ctx, "vendor@example.com", "")
	require.NoError(t, err)

	_, err = f.svc.PortalLogin(ctx, "vendor@example.com", "anything")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}
