package service

import (
	"context"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// StaffService is the directory of internal operators.
type StaffService struct {
	mu    sync.RWMutex
	users []domain.StaffUser

	repo       repository.StaffRepository
	metrics    *observability.Metrics
	logger     *zap.Logger
	bcryptCost int
	bootstrap  StaffBootstrap
}

// StaffBootstrap gives the seeded administrator a password on first start.
type StaffBootstrap struct {
	AdminEmail    string
	AdminPassword string
}

// StaffDependencies bundles collaborators for the staff directory.
type StaffDependencies struct {
	StaffRepo  repository.StaffRepository
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	BcryptCost int
	Bootstrap  StaffBootstrap
}

// StaffInput describes a new staff user.
type StaffInput struct {
	Name       string           `json:"name" validate:"required"`
	Email      string           `json:"email" validate:"required,email"`
	Role       domain.StaffRole `json:"role" validate:"required,oneof=Admin Staff Requester"`
	Department string           `json:"department" validate:"required"`
	Password   string           `json:"password"`
}

// NewStaffService constructs the service. Call Load before use.
func NewStaffService(deps StaffDependencies) *StaffService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaffService{
		repo:       deps.StaffRepo,
		metrics:    deps.Metrics,
		logger:     logger,
		bcryptCost: deps.BcryptCost,
		bootstrap:  deps.Bootstrap,
	}
}

// DefaultStaffUsers is the directory written when none was ever stored.
func DefaultStaffUsers() []domain.StaffUser {
	return []domain.StaffUser{
		{ID: "1", Name: "Admin User", Email: "admin@tenxhealth.in", Role: domain.StaffRoleAdmin, Department: "IT"},
		{ID: "2", Name: "Sanjay", Email: "sanjay@tenxhealth.in", Role: domain.StaffRoleStaff, Department: "Biomedical"},
		{ID: "3", Name: "Nithilla", Email: "nithilla@tenxhealth.in", Role: domain.StaffRoleRequester, Department: "HR"},
		{ID: "4", Name: "StarGokul", Email: "gokul@tenxhealth.in", Role: domain.StaffRoleStaff, Department: "Maintenance"},
		{ID: "5", Name: "John Doe", Email: "john@tenxhealth.in", Role: domain.StaffRoleStaff, Department: "ICT"},
	}
}

// Load reads the directory, seeding it when the key was never written.
func (s *StaffService) Load(ctx context.Context) error {
	users, found, err := s.repo.LoadAll(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	dirty := false
	if !found {
		users = DefaultStaffUsers()
		dirty = true
		s.logger.Info("seeding default staff users", zap.Int("count", len(users)))
	}
	if changed, err := s.bootstrapAdmin(users); err != nil {
		return err
	} else if changed {
		dirty = true
	}
	if dirty {
		if err := s.repo.ReplaceAll(ctx, users); err != nil {
			return err
		}
	}
	s.users = users
	return nil
}

// bootstrapAdmin sets the configured password on the admin account if it has none.
func (s *StaffService) bootstrapAdmin(users []domain.StaffUser) (bool, error) {
	if s.bootstrap.AdminPassword == "" {
		return false, nil
	}
	email := normalizeEmail(s.bootstrap.AdminEmail)
	for i := range users {
		if normalizeEmail(users[i].Email) != email || users[i].PasswordHash != "" {
			continue
		}
		hash, err := auth.HashPassword(s.bootstrap.AdminPassword, s.bcryptCost)
		if err != nil {
			return false, err
		}
		users[i].PasswordHash = hash
		s.logger.Info("bootstrap admin password set", zap.String("email", email))
		return true, nil
	}
	return false, nil
}

// List returns every staff user in insertion order.
func (s *StaffService) List() []domain.StaffUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.StaffUser(nil), s.users...)
}

// Add appends a staff user. The password is optional; without one the user
// cannot sign in but can still be assigned tickets.
func (s *StaffService) Add(ctx context.Context, input StaffInput) (domain.StaffUser, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	input.Department = strings.TrimSpace(input.Department)
	if err := apperrors.ValidateStruct(input); err != nil {
		return domain.StaffUser{}, err
	}

	user := domain.StaffUser{
		ID:         uuid.NewString(),
		Name:       input.Name,
		Email:      input.Email,
		Role:       input.Role,
		Department: input.Department,
	}
	if input.Password != "" {
		hash, err := auth.HashPassword(input.Password, s.bcryptCost)
		if err != nil {
			return domain.StaffUser{}, apperrors.NewInternalError(err)
		}
		user.PasswordHash = hash
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if normalizeEmail(u.Email) == user.Email {
			return domain.StaffUser{}, apperrors.NewDuplicateEmail(user.Email)
		}
	}
	next := append(append([]domain.StaffUser(nil), s.users...), user)
	if err := s.repo.ReplaceAll(ctx, next); err != nil {
		return domain.StaffUser{}, err
	}
	s.users = next
	s.metrics.RecordMutation("staff_user", "create")
	s.logger.Info("staff user added", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Delete removes a staff user.
func (s *StaffService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOfStaff(s.users, id)
	if i < 0 {
		return apperrors.NewNotFound("staff user", map[string]any{"id": id})
	}
	next := make([]domain.StaffUser, 0, len(s.users)-1)
	next = append(next, s.users[:i]...)
	next = append(next, s.users[i+1:]...)
	if err := s.repo.ReplaceAll(ctx, next); err != nil {
		return err
	}
	s.users = next
	s.metrics.RecordMutation("staff_user", "delete")
	return nil
}

// Get returns a staff user by id.
func (s *StaffService) Get(id string) (domain.StaffUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexOfStaff(s.users, id)
	if i < 0 {
		return domain.StaffUser{}, apperrors.NewNotFound("staff user", map[string]any{"id": id})
	}
	return s.users[i], nil
}

// GetByEmail matches case-insensitively.
func (s *StaffService) GetByEmail(email string) (domain.StaffUser, error) {
	email = normalizeEmail(email)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if normalizeEmail(u.Email) == email {
			return u, nil
		}
	}
	return domain.StaffUser{}, apperrors.NewNotFound("staff user", map[string]any{"email": email})
}

// DepartmentContact returns the first Staff-role user working in dept.
func (s *StaffService) DepartmentContact(dept string) (domain.StaffUser, bool) {
	key := departmentKey(dept)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Role == domain.StaffRoleStaff && departmentKey(u.Department) == key {
			return u, true
		}
	}
	return domain.StaffUser{}, false
}

// VerifyLogin checks a staff password. Users without a password cannot sign in.
func (s *StaffService) VerifyLogin(email, password string) (domain.StaffUser, error) {
	user, err := s.GetByEmail(email)
	if err != nil || user.PasswordHash == "" {
		return domain.StaffUser{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return domain.StaffUser{}, apperrors.NewUnauthorized("invalid credentials")
	}
	return user, nil
}

func indexOfStaff(users []domain.StaffUser, id string) int {
	for i := range users {
		if users[i].ID == id {
			return i
		}
	}
	return -1
}

// departmentKey compares department names ignoring case and punctuation, so
// "Biomedical" and "Bio-Medical" meet.
func departmentKey(dept string) string {
	dept = NormalizeDepartment(dept)
	var b strings.Builder
	for _, r := range strings.ToLower(dept) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
