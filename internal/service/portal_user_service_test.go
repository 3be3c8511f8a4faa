package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

func TestInvitePublishesInvitation(t *testing.T) {
	f := newAccessFixture(t)
	ctx := context.Background()

	var got []events.PortalUserInvitedPayload
	f.dispatcher.Subscribe(events.EventPortalUserInvited, func(ctx context.Context, e events.Event) error {
		got = append(got, e.Payload.(events.PortalUserInvitedPayload))
		return nil
	})

	user, token, err := f.users.Invite(ctx, " Vendor@Example.com ", "")
	require.NoError(t, err)
	assert.Equal(t, "vendor@example.com", user.Email)
	assert.Equal(t, domain.PortalUserStatusInvited, user.Status)
	assert.Equal(t, domain.DefaultPermissionSetID, user.PermissionSetID)
	assert.Equal(t, token, user.InvitationToken)

	require.Len(t, got, 1)
	assert.Equal(t, "Customer", got[0].PermissionSetName)
	assert.Equal(t, token, got[0].Token)
}

func TestInviteRejectsDuplicatesAndUnknownSets(t *testing.T) {
	f := newAccessFixture(t)
	ctx := context.Background()

	_, _, err := f.users.Invite(ctx, "a@example.com", "")
	require.NoError(t, err)

	_, _, err = f.users.Invite(ctx, "A@EXAMPLE.COM", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDuplicateEmail))

	_, _, err = f.users.Invite(ctx, "b@example.com", "no-such-set")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, _, err = f.users.Invite(ctx, "not-an-email", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	assert.Len(t, f.users.List(), 1)
}

func TestInvitationTokensAreUnique(t *testing.T) {
	f := newAccessFixture(t)
	ctx := context.Background()

	seen := map[string]bool{}
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com"} {
		_, token, err := f.users.Invite(ctx, email, "")
		require.NoError(t, err)
		assert.False(t, seen[token])
		assert.GreaterOrEqual(t, len(token), 43)
		seen[token] = true
	}
}

func TestRedeemActivatesOnce(t *testing.T) {
	f := newAccessFixture(t)
	ctx := context.Background()
	_, token, err := f.users.Invite(ctx, "a@example.com", "")
	require.NoError(t, err)

	_, err = f.users.Redeem(ctx, token, "123")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	lookedUp, err := f.users.LookupInvitation(token)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", lookedUp.Email)

	user, err := f.users.Redeem(ctx, token, "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, domain.PortalUserStatusActive, user.Status)
	assert.NotNil(t, user.ActivatedAt)
	assert.NotEqual(t, "s3cret!", user.PasswordHash)
	assert.NotEmpty(t, user.PasswordHash)

	_, err = f.users.Redeem(ctx, token, "another")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvitationAlreadyUsed))
	_, err = f.users.LookupInvitation(token)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvitationAlreadyUsed))

	_, err = f.users.Redeem(ctx, "never-issued", "another")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvitationInvalid))
	_, err = f.users.LookupInvitation("")
	assert.True(t, apperrors.IsAuthError(err))
}

func TestVerifyLoginRequiresActiveUser(t *testing.T) {
	f := newAccessFixture(t)
	ctx := context.Background()
	invited, token, err := f.users.Invite(ctx, "a@example.com", "")
	require.NoError(t, err)

	_, err = f.users.VerifyLogin(ctx, "a@example.com", "s3cret!")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	_, err = f.users.Redeem(ctx, token, "s3cret!")
	require.NoError(t, err)

	user, err := f.users.VerifyLogin(ctx, "A@example.com", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, invited.ID, user.ID)

	_, err = f.users.VerifyLogin(ctx, "a@example.com", "wrong-pass")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	_, err = f.users.Suspend(ctx, user.ID)
	require.NoError(t, err)
	_, err = f.users.VerifyLogin(ctx, "a@example.com", "s3cret!")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	_, err = f.users.Reactivate(ctx, user.ID)
	require.NoError(t, err)
	_, err = f.users.VerifyLogin(ctx, "a@example.com", "s3cret!")
	assert.NoError(t, err)
}

func TestSuspendRequiresActive(t *testing.T) {
	f := newAccessFixture(t)
	ctx := context.Background()
	user, _, err := f.users.Invite(ctx, "a@example.com", "")
	require.NoError(t, err)

	_, err = f.users.Suspend(ctx, user.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	_, err = f.users.Reactivate(ctx, user.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	_, err = f.users.Suspend(ctx, "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestUpdatePermissionAndRemove(t *testing.T) {
	f := newAccessFixture(t)
	ctx := context.Background()
	set, err := f.sets.Create(ctx, PermissionSetInput{Name: "Vendors"})
	require.NoError(t, err)
	user, _, err := f.users.Invite(ctx, "a@example.com", "")
	require.NoError(t, err)

	updated, err := f.users.UpdatePermission(ctx, user.ID, set.ID)
	require.NoError(t, err)
	assert.Equal(t, set.ID, updated.PermissionSetID)
	assert.Equal(t, 1, f.users.CountByPermissionSet(set.ID))

	_, err = f.users.UpdatePermission(ctx, "missing", set.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	_, err = f.users.UpdatePermission(ctx, user.ID, "no-such-set")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	require.NoError(t, f.users.Remove(ctx, user.ID))
	assert.True(t, apperrors.HasCode(f.users.Remove(ctx, user.ID), apperrors.CodeNotFound))
	assert.Equal(t, 0, f.users.CountByPermissionSet(set.ID))
}

func TestListNewestInvitationFirst(t *testing.T) {
	f := newAccessFixture(t)
	ctx := context.Background()
	for _, email := range []string{"first@example.com", "second@example.com"} {
		_, _, err := f.users.Invite(ctx, email, "")
		require.NoError(t, err)
	}

	users := f.users.List()
	require.Len(t, users, 2)
	assert.Equal(t, "second@example.com", users[0].Email)
}
