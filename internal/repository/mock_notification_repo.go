package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bookhub/notification-service/internal/domain"
)

// MockNotificationRepository is a hand-written, in-memory implementation of
// NotificationRepository used in unit tests. No mock-generation library needed.
type MockNotificationRepository struct {
	mu            sync.RWMutex
	notifications map[string]*domain.Notification

	// Optional error overrides, set in tests to simulate failure paths.
	CreateErr   error
	ListErr     error
	CountErr    error
	MarkReadErr error

	// CreateErrFor fails Create only for the given user IDs, for testing
	// per-item failure isolation during fan-out.
	CreateErrFor map[string]error
}

func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{
		notifications: make(map[string]*domain.Notification),
		CreateErrFor:  make(map[string]error),
	}
}

func (m *MockNotificationRepository) Create(_ context.Context, n *domain.Notification) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if err := m.CreateErrFor[n.UserID]; err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.EventID != nil {
		for _, existing := range m.notifications {
			if existing.UserID == n.UserID && existing.EventID != nil && *existing.EventID == *n.EventID {
				return domain.ErrDuplicate
			}
		}
	}
	clone := *n
	m.notifications[n.ID] = &clone
	return nil
}

func (m *MockNotificationRepository) GetByID(_ context.Context, userID, id string) (*domain.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.notifications[id]
	if !ok || n.UserID != userID {
		return nil, domain.ErrNotFound
	}
	clone := *n
	return &clone, nil
}

func (m *MockNotificationRepository) List(_ context.Context, userID string, f domain.ListFilter) ([]*domain.Notification, int, error) {
	if m.ListErr != nil {
		return nil, 0, m.ListErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*domain.Notification
	for _, n := range m.notifications {
		if n.UserID != userID {
			continue
		}
		if f.Category != nil && n.Data.Category != *f.Category {
			continue
		}
		clone := *n
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := (f.Page - 1) * f.Limit
	if start > total {
		start = total
	}
	end := start + f.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *MockNotificationRepository) CountUnread(_ context.Context, userID string) (int, error) {
	if m.CountErr != nil {
		return 0, m.CountErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, n := range m.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (m *MockNotificationRepository) MarkRead(_ context.Context, userID, id string) (*domain.Notification, error) {
	if m.MarkReadErr != nil {
		return nil, m.MarkReadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok || n.UserID != userID || n.Read {
		return nil, domain.ErrNotFound
	}
	n.Read = true
	n.UpdatedAt = time.Now().UTC()
	clone := *n
	return &clone, nil
}

func (m *MockNotificationRepository) MarkAllRead(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	updated := 0
	for _, n := range m.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			n.UpdatedAt = time.Now().UTC()
			updated++
		}
	}
	return updated, nil
}

func (m *MockNotificationRepository) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok || n.UserID != userID {
		return domain.ErrNotFound
	}
	delete(m.notifications, id)
	return nil
}

// Count reports how many records the mock currently holds, for test assertions.
func (m *MockNotificationRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.notifications)
}

var _ NotificationRepository = (*MockNotificationRepository)(nil)
