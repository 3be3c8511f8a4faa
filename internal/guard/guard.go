// Package guard decides, for every navigation, whether a session may see a
// path or where it must be sent instead.
package guard

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Paths every visitor may open.
const (
	LoginPath = "/login"
	SetupPath = "/portal/setup"
)

// Action is what the UI must do with a navigation.
type Action string

const (
	ActionAllow     Action = "allow"
	ActionRedirect  Action = "redirect"
	ActionPending   Action = "pending"
	ActionForbidden Action = "forbidden"
)

// Decision is the outcome of a navigation check. Target is set for redirects.
type Decision struct {
	Action Action `json:"action"`
	Target string `json:"target,omitempty"`
	State  State  `json:"state"`
}

// AccessData answers route questions for portal users.
type AccessData interface {
	Loaded() bool
	IsRouteAllowed(userID, path string) bool
	DefaultLandingRoute(userID string) string
}

// Guard owns the session state machine.
type Guard struct {
	sessions *SessionStore
	access   AccessData
	logger   *zap.Logger
	now      func() time.Time
}

// NewGuard wires the guard.
func NewGuard(sessions *SessionStore, access AccessData, logger *zap.Logger) *Guard {
	return &Guard{sessions: sessions, access: access, logger: logger, now: time.Now}
}

// IsPublic reports whether path is open to unauthenticated visitors.
func IsPublic(path string) bool {
	if path == LoginPath {
		return true
	}
	return path == SetupPath || strings.HasPrefix(path, SetupPath+"/") || strings.HasPrefix(path, SetupPath+"?")
}

// Login moves Unauthenticated to Internal or PortalPending and persists the session.
func (g *Guard) Login(ctx context.Context, subjectID string, subject domain.SubjectType) (Session, error) {
	state := StateInternal
	if subject == domain.SubjectTypePortal {
		state = StatePortalPendingAccess
	}
	session := Session{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		Subject:   subject,
		State:     state,
		CreatedAt: g.now().UTC(),
	}
	if err := g.sessions.Save(ctx, session); err != nil {
		return Session{}, err
	}
	g.logger.Info("session started",
		zap.String("session_id", session.ID),
		zap.String("subject", string(subject)),
		zap.String("state", string(state)))
	return session, nil
}

// Logout returns the session to Unauthenticated by deleting it.
func (g *Guard) Logout(ctx context.Context, sessionID string) error {
	return g.sessions.Delete(ctx, sessionID)
}

// Session loads a session without changing it.
func (g *Guard) Session(ctx context.Context, sessionID string) (Session, bool, error) {
	return g.sessions.Load(ctx, sessionID)
}

// MarkReady promotes a pending portal session once access data is loaded.
// Other states are returned unchanged.
func (g *Guard) MarkReady(ctx context.Context, session Session) (Session, error) {
	if session.State != StatePortalPendingAccess || !g.access.Loaded() {
		return session, nil
	}
	session.State = StatePortalReady
	if err := g.sessions.Save(ctx, session); err != nil {
		return session, err
	}
	return session, nil
}

// Navigate decides what happens when the session opens path. It never fails:
// storage problems degrade to the unauthenticated decision.
func (g *Guard) Navigate(ctx context.Context, sessionID, path string) Decision {
	session, ok, err := g.sessions.Load(ctx, sessionID)
	if err != nil {
		g.logger.Warn("session lookup failed", zap.String("session_id", sessionID), zap.Error(err))
		ok = false
	}
	if !ok {
		return Decide(StateUnauthenticated, "", path, g.access)
	}
	if session.State == StatePortalPendingAccess {
		promoted, err := g.MarkReady(ctx, session)
		if err != nil {
			g.logger.Warn("session promotion failed", zap.String("session_id", sessionID), zap.Error(err))
		} else {
			session = promoted
		}
	}
	return Decide(session.State, session.SubjectID, path, g.access)
}

// Decide is the pure navigation rule for a state.
func Decide(state State, userID, path string, access AccessData) Decision {
	if IsPublic(path) {
		return Decision{Action: ActionAllow, State: state}
	}
	switch state {
	case StateInternal:
		return Decision{Action: ActionAllow, State: state}
	case StatePortalPendingAccess:
		return Decision{Action: ActionPending, State: state}
	case StatePortalReady:
		if access.IsRouteAllowed(userID, path) {
			return Decision{Action: ActionAllow, State: state}
		}
		landing := access.DefaultLandingRoute(userID)
		if landing == "" || landing == path {
			return Decision{Action: ActionForbidden, State: state}
		}
		return Decision{Action: ActionRedirect, Target: landing, State: state}
	default:
		return Decision{Action: ActionRedirect, Target: LoginPath, State: StateUnauthenticated}
	}
}
