package repository

import (
	"context"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

// PortalUserRepository persists invited portal accounts.
type PortalUserRepository interface {
	LoadAll(ctx context.Context) ([]domain.PortalUser, bool, error)
	ReplaceAll(ctx context.Context, users []domain.PortalUser) error
}

type portalUserRepository struct {
	collection[domain.PortalUser]
}

func NewPortalUserRepository(kv persistence.KVStore) PortalUserRepository {
	return &portalUserRepository{newCollection[domain.PortalUser](kv, KeyPortalUsers)}
}
