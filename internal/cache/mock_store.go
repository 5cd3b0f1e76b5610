package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MockStore is an in-memory Store for unit tests. It honors TTLs against a
// swappable clock and records invalidation calls so tests can assert that
// mutations dropped the right scope.
type MockStore struct {
	mu      sync.Mutex
	entries map[string]mockEntry

	// Now is the clock used for TTL expiry; defaults to time.Now.
	Now func() time.Time
	// Invalidations records every pattern passed to Invalidate, in order.
	Invalidations []string
	// Unavailable makes every operation behave as if the store is down.
	Unavailable bool
}

type mockEntry struct {
	value     string
	expiresAt time.Time
}

func NewMockStore() *MockStore {
	return &MockStore{
		entries: make(map[string]mockEntry),
		Now:     time.Now,
	}
}

func (s *MockStore) Get(_ context.Context, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Unavailable {
		return "", false
	}
	e, ok := s.entries[key]
	if !ok || s.Now().After(e.expiresAt) {
		delete(s.entries, key)
		return "", false
	}
	return e.value, true
}

func (s *MockStore) Set(_ context.Context, key, value string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Unavailable {
		return
	}
	s.entries[key] = mockEntry{value: value, expiresAt: s.Now().Add(ttl)}
}

func (s *MockStore) Invalidate(_ context.Context, pattern string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Invalidations = append(s.Invalidations, pattern)
	if s.Unavailable {
		return 0
	}
	deleted := 0
	for key := range s.entries {
		if matchPattern(pattern, key) {
			delete(s.entries, key)
			deleted++
		}
	}
	return deleted
}

// Len reports the number of live entries, for test assertions.
func (s *MockStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// matchPattern supports the only glob shape the service emits: an optional
// trailing "*" after a literal prefix.
func matchPattern(pattern, key string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(key, prefix)
	}
	return pattern == key
}

var _ Store = (*MockStore)(nil)
