package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/guard"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	SubjectType domain.SubjectType
	SessionID   string
	Staff       *domain.StaffUser
	Portal      *domain.PortalUser
}

// SubjectID returns the id of whichever account is signed in.
func (p *Principal) SubjectID() string {
	switch {
	case p.Staff != nil:
		return p.Staff.ID
	case p.Portal != nil:
		return p.Portal.ID
	}
	return ""
}

// DisplayName is used for history entries.
func (p *Principal) DisplayName() string {
	switch {
	case p.Staff != nil:
		return p.Staff.Name
	case p.Portal != nil:
		return p.Portal.Email
	}
	return ""
}

type StaffLookup interface {
	Get(id string) (domain.StaffUser, error)
}

type PortalLookup interface {
	Get(id string) (domain.PortalUser, error)
}

// SessionLookup resolves guard sessions; a deleted session revokes its token.
type SessionLookup interface {
	Session(ctx context.Context, sessionID string) (guard.Session, bool, error)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens   *TokenManager
	sessions SessionLookup
	staff    StaffLookup
	portal   PortalLookup
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, sessions SessionLookup, staff StaffLookup, portal PortalLookup) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, sessions: sessions, staff: staff, portal: portal}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	session, ok, err := m.sessions.Session(c.UserContext(), claims.SessionID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !ok || session.SubjectID != claims.SubjectID {
		return apperrors.NewUnauthorized("session expired")
	}

	principal := &Principal{SubjectType: claims.Subject, SessionID: claims.SessionID}

	switch claims.Subject {
	case domain.SubjectTypeStaff:
		staff, err := m.staff.Get(claims.SubjectID)
		if err != nil {
			return apperrors.NewUnauthorized("staff not found")
		}
		principal.Staff = &staff
	case domain.SubjectTypePortal:
		user, err := m.portal.Get(claims.SubjectID)
		if err != nil {
			return apperrors.NewUnauthorized("portal user not found")
		}
		if user.Status != domain.PortalUserStatusActive {
			return apperrors.NewUnauthorized("account is not active")
		}
		principal.Portal = &user
	default:
		return apperrors.NewUnauthorized("unknown subject")
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
