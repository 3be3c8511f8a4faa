package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

// Storage keys. Each holds one JSON array replaced whole on every write.
const (
	KeyTickets        = "tickets"
	KeyStaffUsers     = "users"
	KeyPortalUsers    = "portalUsers"
	KeyPermissionSets = "permissionSets"
)

// collection serializes a whole slice under a single key.
type collection[T any] struct {
	kv  persistence.KVStore
	key string
}

func newCollection[T any](kv persistence.KVStore, key string) collection[T] {
	return collection[T]{kv: kv, key: key}
}

// LoadAll returns the stored items. found is false when the key was never written.
func (c collection[T]) LoadAll(ctx context.Context) ([]T, bool, error) {
	raw, err := c.kv.Get(ctx, c.key)
	if errors.Is(err, persistence.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, true, fmt.Errorf("decode %s: %w", c.key, err)
	}
	return items, true, nil
}

// ReplaceAll writes items as the new value of the key.
func (c collection[T]) ReplaceAll(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	return c.kv.Put(ctx, c.key, raw)
}
