package storage

import (
	"bytes"
	"context"
	"sync"
)

// MemoryStore keeps envelopes in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Envelope
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Envelope)}
}

// Load returns a copy of the stored envelope.
func (m *MemoryStore) Load(_ context.Context, key string) (Envelope, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	env, ok := m.items[key]
	if !ok {
		return Envelope{}, ErrNotFound
	}
	env.Data = bytes.Clone(env.Data)
	return env, nil
}

// Save stores a copy of env under key.
func (m *MemoryStore) Save(_ context.Context, key string, env Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	env.Data = bytes.Clone(env.Data)
	m.items[key] = env
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
