package persistence

import (
	"context"
	"sync"
)

// MemoryKV keeps values in a map. Used by tests and the in-process session store.
type MemoryKV struct {
	mu       sync.RWMutex
	values   map[string][]byte
	failPuts error
}

// NewMemoryKV returns an empty store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string][]byte)}
}

func (m *MemoryKV) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryKV) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPuts != nil {
		return m.failPuts
	}
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// SetFailPuts makes every subsequent Put return err. Pass nil to recover.
func (m *MemoryKV) SetFailPuts(err error) {
	m.mu.Lock()
	m.failPuts = err
	m.mu.Unlock()
}
