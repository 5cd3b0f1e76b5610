package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/bookhub/notification-service/internal/cache"
	"github.com/bookhub/notification-service/internal/domain"
	"github.com/bookhub/notification-service/internal/repository"
)

// CacheHooks carries the cache metric callbacks injected by main.
type CacheHooks struct {
	OnHit        func()
	OnMiss       func()
	OnInvalidate func()
}

func (h *CacheHooks) normalize() {
	if h.OnHit == nil {
		h.OnHit = func() {}
	}
	if h.OnMiss == nil {
		h.OnMiss = func() {}
	}
	if h.OnInvalidate == nil {
		h.OnInvalidate = func() {}
	}
}

// NotificationService owns the read path (read-through cached) and every
// mutation's cache invalidation. The repository is the source of truth; the
// cache only ever holds serialized response snapshots derived from it.
//
// Invalidation discipline: every mutation drops the owner's whole cache scope
// synchronously before returning, so a read issued after a successful mutation
// can never observe cached pre-mutation data.
type NotificationService struct {
	repo     repository.NotificationRepository
	store    cache.Store
	listTTL  time.Duration
	countTTL time.Duration
	hooks    CacheHooks
	logger   *zap.Logger
}

func NewNotificationService(
	repo repository.NotificationRepository,
	store cache.Store,
	listTTL, countTTL time.Duration,
	hooks CacheHooks,
	logger *zap.Logger,
) *NotificationService {
	hooks.normalize()
	return &NotificationService{
		repo:     repo,
		store:    store,
		listTTL:  listTTL,
		countTTL: countTTL,
		hooks:    hooks,
		logger:   logger,
	}
}

// List returns one page of the user's notifications, newest first.
// Category-filtered listings are scoped to the requesting user's own records.
func (s *NotificationService) List(ctx context.Context, userID string, filter domain.ListFilter) (*domain.Page, error) {
	filter.Normalize()

	key := cache.ListKey(userID, filter.Page, filter.Limit)
	if filter.Category != nil {
		key = cache.CategoryKey(userID, *filter.Category, filter.Page, filter.Limit)
	}

	if cached, ok := s.store.Get(ctx, key); ok {
		var page domain.Page
		if err := json.Unmarshal([]byte(cached), &page); err == nil {
			s.hooks.OnHit()
			return &page, nil
		}
		// An undecodable entry is treated as a miss and overwritten below.
		s.logger.Warn("dropping corrupt cache entry", zap.String("key", key))
	}
	s.hooks.OnMiss()

	notifications, total, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	page := domain.NewPage(notifications, total, filter.Page, filter.Limit)

	if data, err := json.Marshal(page); err == nil {
		s.store.Set(ctx, key, string(data), s.listTTL)
	}
	return page, nil
}

// UnreadCount returns the user's unread total, cached with a short TTL since
// it changes on every fan-out.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	key := cache.UnreadCountKey(userID)
	if cached, ok := s.store.Get(ctx, key); ok {
		if count, err := strconv.Atoi(cached); err == nil {
			s.hooks.OnHit()
			return count, nil
		}
	}
	s.hooks.OnMiss()

	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	s.store.Set(ctx, key, strconv.Itoa(count), s.countTTL)
	return count, nil
}

// MarkRead transitions one owned, unread notification to read. The updated
// record and the fresh unread count are returned together so clients can
// update their badge without a second round trip.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) (*domain.Notification, int, error) {
	n, err := s.repo.MarkRead(ctx, userID, id)
	if err != nil {
		return nil, 0, err
	}

	s.invalidateUser(ctx, userID)

	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("unread count after mark read: %w", err)
	}
	s.store.Set(ctx, cache.UnreadCountKey(userID), strconv.Itoa(count), s.countTTL)
	return n, count, nil
}

// MarkAllRead bulk-transitions every unread record and reports how many.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	updated, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.invalidateUser(ctx, userID)
	return updated, nil
}

// Delete removes an owned notification.
func (s *NotificationService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.invalidateUser(ctx, userID)
	return nil
}

// CreateFromFanout persists one fan-out record and drops the owner's cache
// scope so subsequent list reads observe it. Called by the consumer, never
// by HTTP handlers.
func (s *NotificationService) CreateFromFanout(ctx context.Context, n *domain.Notification) error {
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.invalidateUser(ctx, n.UserID)
	return nil
}

func (s *NotificationService) invalidateUser(ctx context.Context, userID string) {
	s.store.Invalidate(ctx, cache.UserPattern(userID))
	s.hooks.OnInvalidate()
}
