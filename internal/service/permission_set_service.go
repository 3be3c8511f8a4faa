package service

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/catalog"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// PermissionSetService manages permission profiles.
type PermissionSetService struct {
	state   *AccessState
	catalog *catalog.Catalog
	metrics *observability.Metrics
	logger  *zap.Logger
}

// PermissionSetDependencies bundles collaborators for the service.
type PermissionSetDependencies struct {
	State   *AccessState
	Catalog *catalog.Catalog
	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// PermissionSetInput describes a new permission set.
type PermissionSetInput struct {
	Name        string
	Description string
	Modules     domain.ModuleGrants
}

// PermissionSetPatch lists the fields an update may change. Nil means keep.
type PermissionSetPatch struct {
	Name        *string
	Description *string
	Modules     domain.ModuleGrants
}

func NewPermissionSetService(deps PermissionSetDependencies) *PermissionSetService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermissionSetService{
		state:   deps.State,
		catalog: deps.Catalog,
		metrics: deps.Metrics,
		logger:  logger,
	}
}

// Create adds a non-default permission set.
func (s *PermissionSetService) Create(ctx context.Context, input PermissionSetInput) (domain.PermissionSet, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.PermissionSet{}, apperrors.NewValidationError("name is required", map[string]any{"name": "required"})
	}
	if err := s.validateModules(input.Modules); err != nil {
		return domain.PermissionSet{}, err
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	set := domain.PermissionSet{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Modules:     input.Modules.Clone(),
		CreatedAt:   s.state.now().UTC(),
	}
	next := append(cloneSets(s.state.sets), set)
	if err := s.state.commitSetsLocked(ctx, next); err != nil {
		return domain.PermissionSet{}, err
	}
	s.metrics.RecordMutation("permission_set", "create")
	s.logger.Info("permission set created", zap.String("set_id", set.ID), zap.String("name", set.Name))
	return set.Clone(), nil
}

// Update merges patch into the set identified by id.
func (s *PermissionSetService) Update(ctx context.Context, id string, patch PermissionSetPatch) (domain.PermissionSet, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return domain.PermissionSet{}, apperrors.NewValidationError("name is required", map[string]any{"name": "required"})
	}
	if patch.Modules != nil {
		if err := s.validateModules(patch.Modules); err != nil {
			return domain.PermissionSet{}, err
		}
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	i := indexOfSet(s.state.sets, id)
	if i < 0 {
		return domain.PermissionSet{}, apperrors.NewNotFound("permission set", map[string]any{"id": id})
	}
	next := cloneSets(s.state.sets)
	set := next[i]
	if patch.Name != nil {
		set.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		set.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Modules != nil {
		set.Modules = patch.Modules.Clone()
	}
	next[i] = set
	if err := s.state.commitSetsLocked(ctx, next); err != nil {
		return domain.PermissionSet{}, err
	}
	s.metrics.RecordMutation("permission_set", "update")
	return set.Clone(), nil
}

// Delete removes a set nobody references. The default set is protected.
func (s *PermissionSetService) Delete(ctx context.Context, id string) error {
	if id == domain.DefaultPermissionSetID {
		return apperrors.NewProtectedEntity("the default permission set cannot be deleted", map[string]any{"id": id})
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	i := indexOfSet(s.state.sets, id)
	if i < 0 {
		return apperrors.NewNotFound("permission set", map[string]any{"id": id})
	}
	if n := countUsersOnSet(s.state.users, id); n > 0 {
		return apperrors.NewInUse("permission set", n)
	}
	next := make([]domain.PermissionSet, 0, len(s.state.sets)-1)
	next = append(next, cloneSets(s.state.sets[:i])...)
	next = append(next, cloneSets(s.state.sets[i+1:])...)
	if err := s.state.commitSetsLocked(ctx, next); err != nil {
		return err
	}
	s.metrics.RecordMutation("permission_set", "delete")
	s.logger.Info("permission set deleted", zap.String("set_id", id))
	return nil
}

// Get returns a copy of the set.
func (s *PermissionSetService) Get(id string) (domain.PermissionSet, error) {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()
	set, ok := s.state.setByIDLocked(id)
	if !ok {
		return domain.PermissionSet{}, apperrors.NewNotFound("permission set", map[string]any{"id": id})
	}
	return set.Clone(), nil
}

// List returns every set, default first.
func (s *PermissionSetService) List() []domain.PermissionSet {
	s.state.mu.RLock()
	out := cloneSets(s.state.sets)
	s.state.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].IsDefault && !out[j].IsDefault
	})
	return out
}

// EnsureDefaultExists inserts the customer set when missing. Safe to call repeatedly.
func (s *PermissionSetService) EnsureDefaultExists(ctx context.Context) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	return s.state.ensureDefaultLocked(ctx)
}

func (s *PermissionSetService) validateModules(modules domain.ModuleGrants) error {
	var unknown []string
	for id := range modules {
		if !s.catalog.Contains(id) {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return apperrors.NewValidationError("unknown module ids", map[string]any{"modules": unknown})
}

func cloneSets(sets []domain.PermissionSet) []domain.PermissionSet {
	out := make([]domain.PermissionSet, len(sets))
	for i := range sets {
		out[i] = sets[i].Clone()
	}
	return out
}

func countUsersOnSet(users []domain.PortalUser, setID string) int {
	n := 0
	for _, u := range users {
		if u.PermissionSetID == setID {
			n++
		}
	}
	return n
}
