package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bookhub/notification-service/internal/cache"
	"github.com/bookhub/notification-service/internal/domain"
	"github.com/bookhub/notification-service/internal/repository"
	"github.com/bookhub/notification-service/internal/service"
)

func newService() (*service.NotificationService, *repository.MockNotificationRepository, *cache.MockStore) {
	repo := repository.NewMockNotificationRepository()
	store := cache.NewMockStore()
	svc := service.NewNotificationService(repo, store, 300*time.Second, 60*time.Second,
		service.CacheHooks{}, zap.NewNop())
	return svc, repo, store
}

func seedNotification(t *testing.T, repo *repository.MockNotificationRepository, userID, category string, read bool, createdAt time.Time) *domain.Notification {
	t.Helper()
	n := &domain.Notification{
		ID:     uuid.New().String(),
		UserID: userID,
		Type:   domain.TypeNewBook,
		Data: domain.NotificationData{
			BookID:   "b1",
			Title:    "T",
			Author:   "A",
			Category: category,
			Price:    9.99,
			Message:  "New " + category + ` book: "T" by A`,
		},
		Read:      read,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := repo.Create(context.Background(), n); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return n
}

func TestList_MissThenFill(t *testing.T) {
	svc, repo, store := newService()
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 3; i++ {
		seedNotification(t, repo, "u1", "FICTION", false, base.Add(time.Duration(i)*time.Second))
	}

	page, err := svc.List(ctx, "u1", domain.ListFilter{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 3 || len(page.Notifications) != 3 {
		t.Fatalf("expected 3 notifications, got total=%d len=%d", page.Total, len(page.Notifications))
	}
	if page.Notifications[0].CreatedAt.Before(page.Notifications[1].CreatedAt) {
		t.Fatal("expected newest-first ordering")
	}

	// The response snapshot must now be cached.
	if _, ok := store.Get(ctx, cache.ListKey("u1", 1, 10)); !ok {
		t.Fatal("expected list response to be cached after miss")
	}
}

func TestList_ServedFromCacheUntilInvalidated(t *testing.T) {
	svc, repo, store := newService()
	ctx := context.Background()

	seedNotification(t, repo, "u1", "FICTION", false, time.Now().UTC())
	if _, err := svc.List(ctx, "u1", domain.ListFilter{Page: 1, Limit: 10}); err != nil {
		t.Fatal(err)
	}

	// A write that bypasses the service is invisible while the cache holds.
	seedNotification(t, repo, "u1", "FICTION", false, time.Now().UTC())
	page, err := svc.List(ctx, "u1", domain.ListFilter{Page: 1, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 {
		t.Fatalf("expected cached total=1, got %d", page.Total)
	}

	// After invalidation the fresh state is visible.
	store.Invalidate(ctx, cache.UserPattern("u1"))
	page, err = svc.List(ctx, "u1", domain.ListFilter{Page: 1, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 2 {
		t.Fatalf("expected fresh total=2, got %d", page.Total)
	}
}

func TestList_PaginationInvariant(t *testing.T) {
	svc, repo, _ := newService()
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 7; i++ {
		seedNotification(t, repo, "u1", "FICTION", false, base.Add(time.Duration(i)*time.Second))
	}

	for page := 1; page <= 3; page++ {
		got, err := svc.List(ctx, "u1", domain.ListFilter{Page: page, Limit: 3})
		if err != nil {
			t.Fatal(err)
		}
		if got.TotalPages != 3 {
			t.Fatalf("page %d: expected totalPages=3, got %d", page, got.TotalPages)
		}
		if len(got.Notifications) > 3 {
			t.Fatalf("page %d: item count %d exceeds limit", page, len(got.Notifications))
		}
	}
}

func TestList_CategoryScopedToRequestingUser(t *testing.T) {
	svc, repo, _ := newService()
	ctx := context.Background()
	now := time.Now().UTC()

	seedNotification(t, repo, "u1", "FICTION", false, now)
	seedNotification(t, repo, "u2", "FICTION", false, now)
	seedNotification(t, repo, "u1", "TECH", false, now)

	category := "FICTION"
	page, err := svc.List(ctx, "u1", domain.ListFilter{Category: &category, Page: 1, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 {
		t.Fatalf("expected only u1's FICTION notification, got total=%d", page.Total)
	}
	if page.Notifications[0].UserID != "u1" {
		t.Fatalf("category listing leaked another user's record: %s", page.Notifications[0].UserID)
	}
}

func TestUnreadCount_CachedShortTTL(t *testing.T) {
	svc, repo, store := newService()
	ctx := context.Background()
	now := time.Now().UTC()

	seedNotification(t, repo, "u1", "FICTION", false, now)
	seedNotification(t, repo, "u1", "FICTION", true, now)

	count, err := svc.UnreadCount(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected unread=1, got %d", count)
	}
	if cached, ok := store.Get(ctx, cache.UnreadCountKey("u1")); !ok || cached != "1" {
		t.Fatalf("expected cached count \"1\", got %q ok=%v", cached, ok)
	}
}

func TestMarkRead(t *testing.T) {
	svc, repo, store := newService()
	ctx := context.Background()
	now := time.Now().UTC()

	n := seedNotification(t, repo, "u1", "FICTION", false, now)
	seedNotification(t, repo, "u1", "FICTION", false, now)

	// Warm the caches so invalidation is observable.
	if _, err := svc.List(ctx, "u1", domain.ListFilter{Page: 1, Limit: 10}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UnreadCount(ctx, "u1"); err != nil {
		t.Fatal(err)
	}

	updated, unread, err := svc.MarkRead(ctx, "u1", n.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.Read {
		t.Fatal("expected returned notification to be read")
	}
	if unread != 1 {
		t.Fatalf("expected fresh unread=1, got %d", unread)
	}

	// The pre-mutation list snapshot must be gone before the call returns.
	if _, ok := store.Get(ctx, cache.ListKey("u1", 1, 10)); ok {
		t.Fatal("stale list cache still being served after mutation")
	}
	if len(store.Invalidations) == 0 {
		t.Fatal("expected an invalidation call")
	}
}

func TestMarkRead_AlreadyReadIsNotFound(t *testing.T) {
	svc, repo, _ := newService()
	ctx := context.Background()

	n := seedNotification(t, repo, "u1", "FICTION", true, time.Now().UTC())

	_, _, err := svc.MarkRead(ctx, "u1", n.ID)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for already-read target, got %v", err)
	}
}

func TestMarkRead_ForeignOwnerIsNotFound(t *testing.T) {
	svc, repo, _ := newService()
	ctx := context.Background()

	n := seedNotification(t, repo, "u2", "FICTION", false, time.Now().UTC())

	_, _, err := svc.MarkRead(ctx, "u1", n.ID)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign-owned target, got %v", err)
	}
}

func TestMarkAllRead(t *testing.T) {
	svc, repo, _ := newService()
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		seedNotification(t, repo, "u1", "FICTION", false, now)
	}

	// Warm the count cache with the pre-mutation value.
	if _, err := svc.UnreadCount(ctx, "u1"); err != nil {
		t.Fatal(err)
	}

	updated, err := svc.MarkAllRead(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if updated != 3 {
		t.Fatalf("expected updated=3, got %d", updated)
	}

	// A subsequent read must not observe cached pre-mutation data.
	count, err := svc.UnreadCount(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("expected unread=0 after markAllRead, got %d", count)
	}
}

func TestDelete(t *testing.T) {
	svc, repo, store := newService()
	ctx := context.Background()

	n := seedNotification(t, repo, "u1", "FICTION", false, time.Now().UTC())
	if _, err := svc.List(ctx, "u1", domain.ListFilter{Page: 1, Limit: 10}); err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(ctx, "u1", n.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.Get(ctx, cache.ListKey("u1", 1, 10)); ok {
		t.Fatal("stale list cache still being served after delete")
	}

	if err := svc.Delete(ctx, "u1", n.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestCreateFromFanout_InvalidatesOwnerScope(t *testing.T) {
	svc, repo, _ := newService()
	ctx := context.Background()
	now := time.Now().UTC()

	seedNotification(t, repo, "u1", "FICTION", false, now)
	if _, err := svc.List(ctx, "u1", domain.ListFilter{Page: 1, Limit: 10}); err != nil {
		t.Fatal(err)
	}

	n := &domain.Notification{
		ID:        uuid.New().String(),
		UserID:    "u1",
		Type:      domain.TypeNewBook,
		Data:      domain.NotificationData{BookID: "b2", Category: "FICTION"},
		CreatedAt: now.Add(time.Second),
		UpdatedAt: now.Add(time.Second),
	}
	if err := svc.CreateFromFanout(ctx, n); err != nil {
		t.Fatal(err)
	}

	page, err := svc.List(ctx, "u1", domain.ListFilter{Page: 1, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 2 {
		t.Fatalf("expected list to reflect fan-out write, got total=%d", page.Total)
	}
}

func TestList_StoreErrorPropagates(t *testing.T) {
	svc, repo, _ := newService()
	repo.ListErr = fmt.Errorf("connection refused")

	_, err := svc.List(context.Background(), "u1", domain.ListFilter{Page: 1, Limit: 10})
	if err == nil {
		t.Fatal("expected store error to propagate on cache miss")
	}
}

func TestList_CacheUnavailableStillServes(t *testing.T) {
	svc, repo, store := newService()
	store.Unavailable = true
	ctx := context.Background()

	seedNotification(t, repo, "u1", "FICTION", false, time.Now().UTC())

	page, err := svc.List(ctx, "u1", domain.ListFilter{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("cache unavailability must not fail the request: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("expected total=1, got %d", page.Total)
	}
}
