package repository

import (
	"context"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

// StaffRepository handles persistence for internal staff users.
type StaffRepository interface {
	LoadAll(ctx context.Context) ([]domain.StaffUser, bool, error)
	ReplaceAll(ctx context.Context, users []domain.StaffUser) error
}

type staffRepository struct {
	collection[domain.StaffUser]
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(kv persistence.KVStore) StaffRepository {
	return &staffRepository{newCollection[domain.StaffUser](kv, KeyStaffUsers)}
}
