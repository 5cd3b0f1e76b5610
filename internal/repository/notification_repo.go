package repository

import (
	"context"

	"github.com/bookhub/notification-service/internal/domain"
)

// NotificationRepository defines all persistence operations for notifications.
// The pgx implementation is in pg_notification_repo.go.
// Tests use a hand-written mock (mock_notification_repo.go).
//
// Every operation that mutates or reads user data takes the owning userID and
// enforces ownership inside the query, so a caller can never reach another
// user's records by guessing IDs.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, userID, id string) (*domain.Notification, error)
	List(ctx context.Context, userID string, filter domain.ListFilter) ([]*domain.Notification, int, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	// MarkRead flips exactly one owned, currently-unread record to read and
	// returns the updated row. ErrNotFound covers absent, foreign-owned, and
	// already-read targets alike.
	MarkRead(ctx context.Context, userID, id string) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, userID, id string) error
}
