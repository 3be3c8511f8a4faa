package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/guard"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// AuthService signs staff and portal users in and out. Every token is bound
// to a guard session so logout revokes it.
type AuthService struct {
	staff    *StaffService
	portal   *PortalUserService
	resolver *AccessResolver
	guard    *guard.Guard
	tokens   *auth.TokenManager
	logger   *zap.Logger
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Staff    *StaffService
	Portal   *PortalUserService
	Resolver *AccessResolver
	Guard    *guard.Guard
	Tokens   *auth.TokenManager
	Logger   *zap.Logger
}

// LoginResult is what a successful sign-in returns.
type LoginResult struct {
	Token        string
	ExpiresAt    time.Time
	Session      guard.Session
	Staff        *domain.StaffUser
	Portal       *domain.PortalUser
	LandingRoute string
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		staff:    deps.Staff,
		portal:   deps.Portal,
		resolver: deps.Resolver,
		guard:    deps.Guard,
		tokens:   deps.Tokens,
		logger:   logger,
	}
}

// StaffLogin authenticates an internal operator.
func (s *AuthService) StaffLogin(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.staff.VerifyLogin(email, password)
	if err != nil {
		s.logger.Info("staff login rejected", zap.String("email", normalizeEmail(email)))
		return LoginResult{}, err
	}
	result, err := s.issue(ctx, user.ID, domain.SubjectTypeStaff)
	if err != nil {
		return LoginResult{}, err
	}
	result.Staff = &user
	result.LandingRoute = "/"
	return result, nil
}

// PortalLogin authenticates an active portal user and lands them on their
// first reachable module.
func (s *AuthService) PortalLogin(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.portal.VerifyLogin(ctx, email, password)
	if err != nil {
		s.logger.Info("portal login rejected", zap.String("email", normalizeEmail(email)))
		return LoginResult{}, err
	}
	result, err := s.issue(ctx, user.ID, domain.SubjectTypePortal)
	if err != nil {
		return LoginResult{}, err
	}
	if ready, err := s.guard.MarkReady(ctx, result.Session); err == nil {
		result.Session = ready
	}
	result.Portal = &user
	if s.resolver != nil {
		result.LandingRoute = s.resolver.DefaultLandingRoute(user.ID)
	}
	return result, nil
}

// Logout deletes the session behind the token.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.guard.Logout(ctx, sessionID); err != nil {
		return apperrors.NewInternalError(err)
	}
	s.logger.Info("session ended", zap.String("session_id", sessionID))
	return nil
}

func (s *AuthService) issue(ctx context.Context, subjectID string, subject domain.SubjectType) (LoginResult, error) {
	session, err := s.guard.Login(ctx, subjectID, subject)
	if err != nil {
		return LoginResult{}, apperrors.NewInternalError(err)
	}
	token, meta, err := s.tokens.GenerateToken(session.ID, subjectID, subject)
	if err != nil {
		_ = s.guard.Logout(ctx, session.ID)
		return LoginResult{}, apperrors.NewInternalError(err)
	}
	return LoginResult{Token: token, ExpiresAt: meta.ExpiresAt, Session: session}, nil
}
