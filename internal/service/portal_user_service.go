package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// PortalUserService is the directory of invited portal accounts.
type PortalUserService struct {
	state          *AccessState
	dispatcher     events.Dispatcher
	metrics        *observability.Metrics
	logger         *zap.Logger
	bcryptCost     int
	minPasswordLen int
	newToken       func() (string, error)
}

// PortalUserDependencies bundles collaborators for the directory.
type PortalUserDependencies struct {
	State             *AccessState
	Dispatcher        events.Dispatcher
	Metrics           *observability.Metrics
	Logger            *zap.Logger
	BcryptCost        int
	MinPasswordLength int
}

func NewPortalUserService(deps PortalUserDependencies) *PortalUserService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	minLen := deps.MinPasswordLength
	if minLen <= 0 {
		minLen = 6
	}
	s := &PortalUserService{
		state:          deps.State,
		dispatcher:     deps.Dispatcher,
		metrics:        deps.Metrics,
		logger:         logger,
		bcryptCost:     deps.BcryptCost,
		minPasswordLen: minLen,
	}
	s.newToken = s.generateToken
	return s
}

// Invite creates an invited user and returns its one-time token. The
// invitation is committed before any mail is attempted.
func (s *PortalUserService) Invite(ctx context.Context, email, permissionSetID string) (domain.PortalUser, string, error) {
	email = normalizeEmail(email)
	if err := apperrors.ValidateVar("email", email, "required,email"); err != nil {
		return domain.PortalUser{}, "", err
	}
	if permissionSetID == "" {
		permissionSetID = domain.DefaultPermissionSetID
	}

	s.state.mu.Lock()
	set, ok := s.state.setByIDLocked(permissionSetID)
	if !ok {
		s.state.mu.Unlock()
		return domain.PortalUser{}, "", apperrors.NewValidationError("unknown permission set",
			map[string]any{"permissionProfile": permissionSetID})
	}
	for _, u := range s.state.users {
		if u.Email == email {
			s.state.mu.Unlock()
			return domain.PortalUser{}, "", apperrors.NewDuplicateEmail(email)
		}
	}
	token, err := s.uniqueTokenLocked()
	if err != nil {
		s.state.mu.Unlock()
		return domain.PortalUser{}, "", apperrors.NewInternalError(err)
	}
	user := domain.PortalUser{
		ID:              uuid.NewString(),
		Email:           email,
		PermissionSetID: permissionSetID,
		Status:          domain.PortalUserStatusInvited,
		InvitationToken: token,
		InvitedAt:       s.state.now().UTC(),
	}
	next := append(append([]domain.PortalUser(nil), s.state.users...), user)
	if err := s.state.commitUsersLocked(ctx, next); err != nil {
		s.state.mu.Unlock()
		return domain.PortalUser{}, "", err
	}
	s.state.mu.Unlock()

	s.metrics.RecordMutation("portal_user", "invite")
	s.logger.Info("portal user invited", zap.String("user_id", user.ID), zap.String("email", user.Email))
	s.publish(ctx, events.Event{
		Type:     events.EventPortalUserInvited,
		EntityID: user.ID,
		Payload: events.PortalUserInvitedPayload{
			UserID:            user.ID,
			Email:             user.Email,
			PermissionSetID:   user.PermissionSetID,
			PermissionSetName: set.Name,
			Token:             token,
		},
	})
	return user, token, nil
}

// LookupInvitation resolves a token for the setup page without changing anything.
func (s *PortalUserService) LookupInvitation(token string) (domain.PortalUser, error) {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()
	return s.invitationLocked(token)
}

// Redeem activates the invited user owning token and stores a hash of credential.
func (s *PortalUserService) Redeem(ctx context.Context, token, credential string) (domain.PortalUser, error) {
	if _, err := s.LookupInvitation(token); err != nil {
		return domain.PortalUser{}, err
	}
	if len(credential) < s.minPasswordLen {
		return domain.PortalUser{}, apperrors.NewValidationError("password too short",
			map[string]any{"password": "min length " + strconv.Itoa(s.minPasswordLen)})
	}
	// bcrypt is slow; hash outside the lock and recheck the token after.
	hash, err := auth.HashPassword(credential, s.bcryptCost)
	if err != nil {
		return domain.PortalUser{}, apperrors.NewInternalError(err)
	}

	s.state.mu.Lock()
	user, err := s.invitationLocked(token)
	if err != nil {
		s.state.mu.Unlock()
		return domain.PortalUser{}, err
	}
	activatedAt := s.state.now().UTC()
	user.Status = domain.PortalUserStatusActive
	user.PasswordHash = hash
	user.ActivatedAt = &activatedAt
	next := append([]domain.PortalUser(nil), s.state.users...)
	next[indexOfUser(next, user.ID)] = user
	if err := s.state.commitUsersLocked(ctx, next); err != nil {
		s.state.mu.Unlock()
		return domain.PortalUser{}, err
	}
	s.state.mu.Unlock()

	s.metrics.RecordMutation("portal_user", "redeem")
	s.logger.Info("portal user activated", zap.String("user_id", user.ID))
	return user, nil
}

// UpdatePermission moves a user to another existing permission set.
func (s *PortalUserService) UpdatePermission(ctx context.Context, userID, permissionSetID string) (domain.PortalUser, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	i := indexOfUser(s.state.users, userID)
	if i < 0 {
		return domain.PortalUser{}, apperrors.NewNotFound("portal user", map[string]any{"id": userID})
	}
	if _, ok := s.state.setByIDLocked(permissionSetID); !ok {
		return domain.PortalUser{}, apperrors.NewValidationError("unknown permission set",
			map[string]any{"permissionProfile": permissionSetID})
	}
	next := append([]domain.PortalUser(nil), s.state.users...)
	next[i].PermissionSetID = permissionSetID
	if err := s.state.commitUsersLocked(ctx, next); err != nil {
		return domain.PortalUser{}, err
	}
	s.metrics.RecordMutation("portal_user", "update_permission")
	return next[i], nil
}

// Remove deletes a user from the directory.
func (s *PortalUserService) Remove(ctx context.Context, userID string) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	i := indexOfUser(s.state.users, userID)
	if i < 0 {
		return apperrors.NewNotFound("portal user", map[string]any{"id": userID})
	}
	next := make([]domain.PortalUser, 0, len(s.state.users)-1)
	next = append(next, s.state.users[:i]...)
	next = append(next, s.state.users[i+1:]...)
	if err := s.state.commitUsersLocked(ctx, next); err != nil {
		return err
	}
	s.metrics.RecordMutation("portal_user", "remove")
	s.logger.Info("portal user removed", zap.String("user_id", userID))
	return nil
}

// Suspend blocks an active user from signing in.
func (s *PortalUserService) Suspend(ctx context.Context, userID string) (domain.PortalUser, error) {
	return s.transition(ctx, userID, domain.PortalUserStatusActive, domain.PortalUserStatusSuspended)
}

// Reactivate restores a suspended user.
func (s *PortalUserService) Reactivate(ctx context.Context, userID string) (domain.PortalUser, error) {
	return s.transition(ctx, userID, domain.PortalUserStatusSuspended, domain.PortalUserStatusActive)
}

func (s *PortalUserService) transition(ctx context.Context, userID string, from, to domain.PortalUserStatus) (domain.PortalUser, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	i := indexOfUser(s.state.users, userID)
	if i < 0 {
		return domain.PortalUser{}, apperrors.NewNotFound("portal user", map[string]any{"id": userID})
	}
	if s.state.users[i].Status != from {
		return domain.PortalUser{}, apperrors.NewValidationError("invalid status transition",
			map[string]any{"status": s.state.users[i].Status, "target": to})
	}
	next := append([]domain.PortalUser(nil), s.state.users...)
	next[i].Status = to
	if err := s.state.commitUsersLocked(ctx, next); err != nil {
		return domain.PortalUser{}, err
	}
	s.metrics.RecordMutation("portal_user", string(to))
	return next[i], nil
}

// VerifyLogin succeeds only for an active user whose stored hash matches.
func (s *PortalUserService) VerifyLogin(ctx context.Context, email, credential string) (domain.PortalUser, error) {
	email = normalizeEmail(email)

	s.state.mu.RLock()
	var (
		user  domain.PortalUser
		found bool
	)
	for _, u := range s.state.users {
		if u.Email == email {
			user, found = u, true
			break
		}
	}
	s.state.mu.RUnlock()

	if !found || user.Status != domain.PortalUserStatusActive {
		return domain.PortalUser{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(user.PasswordHash, credential); err != nil {
		return domain.PortalUser{}, apperrors.NewUnauthorized("invalid credentials")
	}
	return user, nil
}

// Get returns a user by id.
func (s *PortalUserService) Get(userID string) (domain.PortalUser, error) {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()
	user, ok := s.state.userByIDLocked(userID)
	if !ok {
		return domain.PortalUser{}, apperrors.NewNotFound("portal user", map[string]any{"id": userID})
	}
	return user, nil
}

// List returns all users, most recently invited first.
func (s *PortalUserService) List() []domain.PortalUser {
	s.state.mu.RLock()
	out := append([]domain.PortalUser(nil), s.state.users...)
	s.state.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].InvitedAt.After(out[j].InvitedAt)
	})
	return out
}

// CountByPermissionSet reports how many users reference setID.
func (s *PortalUserService) CountByPermissionSet(setID string) int {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()
	return countUsersOnSet(s.state.users, setID)
}

func (s *PortalUserService) invitationLocked(token string) (domain.PortalUser, error) {
	if token == "" {
		return domain.PortalUser{}, apperrors.NewInvitationInvalid()
	}
	for _, u := range s.state.users {
		if u.InvitationToken != token {
			continue
		}
		if u.Status != domain.PortalUserStatusInvited {
			return domain.PortalUser{}, apperrors.NewInvitationAlreadyUsed()
		}
		return u, nil
	}
	return domain.PortalUser{}, apperrors.NewInvitationInvalid()
}

func (s *PortalUserService) uniqueTokenLocked() (string, error) {
	for {
		token, err := s.newToken()
		if err != nil {
			return "", err
		}
		taken := false
		for _, u := range s.state.users {
			if u.InvitationToken == token {
				taken = true
				break
			}
		}
		if !taken {
			return token, nil
		}
	}
}

// generateToken joins 32 random bytes with the current time in nanoseconds.
func (s *PortalUserService) generateToken() (string, error) {
	buf := make([]byte, 40)
	if _, err := rand.Read(buf[:32]); err != nil {
		return "", err
	}
	binary.BigEndian.PutUint64(buf[32:], uint64(s.state.now().UnixNano()))
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (s *PortalUserService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
