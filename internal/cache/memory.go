package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a thread-safe in-memory Store. It is the zero-config
// default for single-process deployments and the backend of choice in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-memory cache.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	entry, ok := s.entries[KeyPrefix+key]
	s.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, ErrMiss
	}
	return entry.value, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	cp := make([]byte, len(value))
	copy(cp, value)
	s.mu.Lock()
	s.entries[KeyPrefix+key] = memoryEntry{value: cp, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, KeyPrefix+key)
	s.mu.Unlock()
	return nil
}
