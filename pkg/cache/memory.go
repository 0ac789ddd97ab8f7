package cache

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore is the volatile tier: an in-process map with lazy expiry.
// It is reconstructable by definition, so losing it (process restart,
// host flush) only costs a round of durable-tier reads.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty volatile store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

// Get returns the entry for key. Expired entries are deleted on read.
func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	if entry.IsExpired() {
		delete(s.entries, key)
		return nil, ErrCacheMiss
	}
	out := entry
	out.Data = append([]byte(nil), entry.Data...)
	out.Origin = TierVolatile
	return &out, nil
}

// Set stores a copy of the entry. Already-expired entries are dropped.
func (s *MemoryStore) Set(_ context.Context, key string, entry *Entry) error {
	if entry == nil || entry.TTL() <= 0 {
		return nil
	}
	stored := *entry
	stored.Data = append([]byte(nil), entry.Data...)
	s.mu.Lock()
	s.entries[key] = stored
	s.mu.Unlock()
	return nil
}

// Delete removes key. Absent keys are not an error.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Keys enumerates stored keys matching prefix.
func (s *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		if prefix == "" || strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Flush discards every entry.
func (s *MemoryStore) Flush(_ context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]Entry)
	s.mu.Unlock()
	return nil
}

// Len returns the number of live entries (expired rows included until
// their next read).
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
