package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/bookhub/notification-service/internal/cache"
)

func TestKeys_Deterministic(t *testing.T) {
	if cache.ListKey("u1", 2, 10) != cache.ListKey("u1", 2, 10) {
		t.Fatal("identical queries must map to the same key")
	}
	if cache.ListKey("u1", 2, 10) == cache.ListKey("u1", 3, 10) {
		t.Fatal("different pages must map to different keys")
	}

	tests := []struct {
		got, want string
	}{
		{cache.ListKey("u1", 1, 10), "notifications:u1:1:10"},
		{cache.CategoryKey("u1", "FICTION", 2, 5), "notifications:u1:category:FICTION:2:5"},
		{cache.UnreadCountKey("u1"), "notifications:u1:unread:count"},
		{cache.UserPattern("u1"), "notifications:u1:*"},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Fatalf("expected key %q, got %q", tc.want, tc.got)
		}
	}
}

func TestMockStore_SetGetRoundTrip(t *testing.T) {
	s := cache.NewMockStore()
	ctx := context.Background()

	s.Set(ctx, "k", "v", time.Minute)

	got, ok := s.Get(ctx, "k")
	if !ok || got != "v" {
		t.Fatalf("expected hit with v, got %q ok=%v", got, ok)
	}
}

func TestMockStore_TTLExpiry(t *testing.T) {
	s := cache.NewMockStore()
	ctx := context.Background()

	now := time.Now()
	s.Now = func() time.Time { return now }
	s.Set(ctx, "k", "v", time.Minute)

	// Advance past the TTL; the entry must no longer be served.
	s.Now = func() time.Time { return now.Add(2 * time.Minute) }
	if _, ok := s.Get(ctx, "k"); ok {
		t.Fatal("expected entry to expire past TTL")
	}
}

func TestMockStore_InvalidatePrefix(t *testing.T) {
	s := cache.NewMockStore()
	ctx := context.Background()

	s.Set(ctx, cache.ListKey("u1", 1, 10), "a", time.Minute)
	s.Set(ctx, cache.UnreadCountKey("u1"), "3", time.Minute)
	s.Set(ctx, cache.ListKey("u2", 1, 10), "b", time.Minute)

	deleted := s.Invalidate(ctx, cache.UserPattern("u1"))
	if deleted != 2 {
		t.Fatalf("expected 2 deletions, got %d", deleted)
	}

	// No key matching the prefix remains retrievable.
	if _, ok := s.Get(ctx, cache.ListKey("u1", 1, 10)); ok {
		t.Fatal("u1 list entry survived invalidation")
	}
	if _, ok := s.Get(ctx, cache.UnreadCountKey("u1")); ok {
		t.Fatal("u1 count entry survived invalidation")
	}

	// Other users' entries are untouched.
	if _, ok := s.Get(ctx, cache.ListKey("u2", 1, 10)); !ok {
		t.Fatal("u2 entry was wrongly invalidated")
	}
}

func TestMockStore_UnavailableDegradesToMiss(t *testing.T) {
	s := cache.NewMockStore()
	s.Unavailable = true
	ctx := context.Background()

	s.Set(ctx, "k", "v", time.Minute)
	if _, ok := s.Get(ctx, "k"); ok {
		t.Fatal("unavailable store must report misses")
	}
	if n := s.Invalidate(ctx, "k*"); n != 0 {
		t.Fatalf("unavailable store must no-op invalidation, deleted %d", n)
	}
}
