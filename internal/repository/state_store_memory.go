package repository

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	value     []byte
	expiresAt time.Time
	hasTTL    bool
}

func (e memEntry) expired(now time.Time) bool {
	return e.hasTTL && now.After(e.expiresAt)
}

type memoryStateStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

func NewMemoryStateStore() StateStore {
	return newMemoryStateStore(time.Now)
}

func newMemoryStateStore(now func() time.Time) *memoryStateStore {
	return &memoryStateStore{
		entries: make(map[string]memEntry),
		now:     now,
	}
}

func (s *memoryStateStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.hasTTL = true
		entry.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = entry
	return nil
}

// Get drops expired entries lazily.
func (s *memoryStateStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	if entry.expired(s.now()) {
		delete(s.entries, key)
		return nil, nil
	}
	return entry.value, nil
}

func (s *memoryStateStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
