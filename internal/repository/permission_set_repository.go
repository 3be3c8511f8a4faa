package repository

import (
	"context"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

// PermissionSetRepository persists permission profiles.
type PermissionSetRepository interface {
	LoadAll(ctx context.Context) ([]domain.PermissionSet, bool, error)
	ReplaceAll(ctx context.Context, sets []domain.PermissionSet) error
}

type permissionSetRepository struct {
	collection[domain.PermissionSet]
}

func NewPermissionSetRepository(kv persistence.KVStore) PermissionSetRepository {
	return &permissionSetRepository{newCollection[domain.PermissionSet](kv, KeyPermissionSets)}
}
