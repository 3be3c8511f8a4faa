package guard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

// State is the guard's view of a browser session.
type State string

const (
	StateUnauthenticated     State = "unauthenticated"
	StateInternal            State = "authenticated_internal"
	StatePortalPendingAccess State = "authenticated_portal_pending_access_data"
	StatePortalReady         State = "authenticated_portal_ready"
)

// Session is persisted per login and removed on logout.
type Session struct {
	ID        string             `json:"id"`
	SubjectID string             `json:"subjectId"`
	Subject   domain.SubjectType `json:"subject"`
	State     State              `json:"state"`
	CreatedAt time.Time          `json:"createdAt"`
}

const sessionKeyPrefix = "session:"

// SessionStore keeps sessions in a key-value backend. Sessions older than
// ttl are dropped on load; a zero ttl keeps them until logout.
type SessionStore struct {
	kv  persistence.KVStore
	ttl time.Duration
	now func() time.Time
}

func NewSessionStore(kv persistence.KVStore, ttl time.Duration) *SessionStore {
	return &SessionStore{kv: kv, ttl: ttl, now: time.Now}
}

func (s *SessionStore) Save(ctx context.Context, session Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.kv.Put(ctx, sessionKeyPrefix+session.ID, raw)
}

// Load returns the session; ok is false when it does not exist.
func (s *SessionStore) Load(ctx context.Context, id string) (Session, bool, error) {
	if id == "" {
		return Session{}, false, nil
	}
	raw, err := s.kv.Get(ctx, sessionKeyPrefix+id)
	if errors.Is(err, persistence.ErrKeyNotFound) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}
	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return Session{}, false, fmt.Errorf("decode session: %w", err)
	}
	if s.ttl > 0 && s.now().After(session.CreatedAt.Add(s.ttl)) {
		if err := s.Delete(ctx, id); err != nil {
			return Session{}, false, err
		}
		return Session{}, false, nil
	}
	return session, true, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.kv.Delete(ctx, sessionKeyPrefix+id)
}
