package persistence

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when nothing has been stored under a key.
var ErrKeyNotFound = errors.New("key not found")

// KVStore persists whole values under string keys. Put replaces the previous
// value atomically: a reader sees either the old value or the new one.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
