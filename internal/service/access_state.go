package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// AccessState holds permission sets and portal users together. They share
// one lock because deleting a set must see every user referencing it.
type AccessState struct {
	mu       sync.RWMutex
	sets     []domain.PermissionSet
	users    []domain.PortalUser
	loaded   bool
	setRepo  repository.PermissionSetRepository
	userRepo repository.PortalUserRepository
	logger   *zap.Logger
	now      func() time.Time
}

// AccessStateDependencies bundles repositories for the access state.
type AccessStateDependencies struct {
	PermissionSetRepo repository.PermissionSetRepository
	PortalUserRepo    repository.PortalUserRepository
	Logger            *zap.Logger
	Now               func() time.Time
}

// NewAccessState constructs an empty, not yet loaded state.
func NewAccessState(deps AccessStateDependencies) *AccessState {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessState{
		setRepo:  deps.PermissionSetRepo,
		userRepo: deps.PortalUserRepo,
		logger:   logger,
		now:      now,
	}
}

// Load reads both collections from storage and bootstraps the default set.
func (s *AccessState) Load(ctx context.Context) error {
	sets, _, err := s.setRepo.LoadAll(ctx)
	if err != nil {
		return err
	}
	users, _, err := s.userRepo.LoadAll(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets = sets
	s.users = users
	if err := s.ensureDefaultLocked(ctx); err != nil {
		return err
	}
	s.loaded = true
	s.logger.Info("access data loaded",
		zap.Int("permission_sets", len(s.sets)),
		zap.Int("portal_users", len(s.users)))
	return nil
}

// Loaded reports whether Load has completed.
func (s *AccessState) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *AccessState) ensureDefaultLocked(ctx context.Context) error {
	if indexOfSet(s.sets, domain.DefaultPermissionSetID) >= 0 {
		return nil
	}
	next := make([]domain.PermissionSet, 0, len(s.sets)+1)
	next = append(next, domain.DefaultPermissionSet(s.now().UTC()))
	next = append(next, s.sets...)
	if err := s.commitSetsLocked(ctx, next); err != nil {
		return err
	}
	s.logger.Info("default permission set created")
	return nil
}

// commitSetsLocked persists next and only then makes it the live collection.
func (s *AccessState) commitSetsLocked(ctx context.Context, next []domain.PermissionSet) error {
	if err := s.setRepo.ReplaceAll(ctx, next); err != nil {
		return err
	}
	s.sets = next
	return nil
}

func (s *AccessState) commitUsersLocked(ctx context.Context, next []domain.PortalUser) error {
	if err := s.userRepo.ReplaceAll(ctx, next); err != nil {
		return err
	}
	s.users = next
	return nil
}

func (s *AccessState) setByIDLocked(id string) (domain.PermissionSet, bool) {
	i := indexOfSet(s.sets, id)
	if i < 0 {
		return domain.PermissionSet{}, false
	}
	return s.sets[i], true
}

func (s *AccessState) userByIDLocked(id string) (domain.PortalUser, bool) {
	i := indexOfUser(s.users, id)
	if i < 0 {
		return domain.PortalUser{}, false
	}
	return s.users[i], true
}

func indexOfSet(sets []domain.PermissionSet, id string) int {
	for i := range sets {
		if sets[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfUser(users []domain.PortalUser, id string) int {
	for i := range users {
		if users[i].ID == id {
			return i
		}
	}
	return -1
}
