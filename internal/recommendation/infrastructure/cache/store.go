package cache

import (
	"context"
	"sync"
)

// Store persists cache entries. Load returns ErrNotFound for absent entries
// and domain.ErrCorruptEntry for entries that cannot be decoded.
type Store interface {
	Load(ctx context.Context, key string, variant Variant) (*Entry, error)
	Save(ctx context.Context, entry *Entry) error
	Delete(ctx context.Context, key string, variant Variant) error
	Entries(ctx context.Context) ([]*Entry, error)
}

type storeKey struct {
	key     string
	variant Variant
}

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[storeKey]*Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[storeKey]*Entry)}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, key string, variant Variant) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[storeKey{key, variant}]
	if !ok {
		return nil, ErrNotFound
	}
	return entry, nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[storeKey{entry.Key, entry.Variant}] = entry
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, key string, variant Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, storeKey{key, variant})
	return nil
}

// Entries implements Store.
func (s *MemoryStore) Entries(_ context.Context) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out, nil
}
