package domain

import (
	"fmt"
	"math"
	"time"
)

// NotificationType tags the domain event that produced a notification.
type NotificationType string

const (
	TypeNewBook   NotificationType = "NEW_BOOK"
	TypePriceDrop NotificationType = "PRICE_DROP"
	TypeNewReview NotificationType = "NEW_REVIEW"
)

func (t NotificationType) IsValid() bool {
	switch t {
	case TypeNewBook, TypePriceDrop, TypeNewReview:
		return true
	}
	return false
}

// Book is the catalog snapshot carried inside an event payload.
type Book struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Author   string  `json:"author"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
}

// NotificationData is the denormalized snapshot of the triggering object,
// frozen at creation time. It is never updated after the record is created,
// so later catalog edits do not rewrite notification history.
type NotificationData struct {
	BookID   string  `json:"bookId"`
	Title    string  `json:"title"`
	Author   string  `json:"author"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Message  string  `json:"message"`
}

// Notification is the core domain entity: one record per (event, interested user).
// Only the Read flag is mutable after creation.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Type      NotificationType `json:"type"`
	Data      NotificationData `json:"data"`
	Read      bool             `json:"read"`
	EventID   *string          `json:"eventId,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// NotificationMessage renders the human-readable message stored in the snapshot.
func NotificationMessage(b Book) string {
	return fmt.Sprintf("New %s book: %q by %s", b.Category, b.Title, b.Author)
}

// ListFilter holds query parameters for paginated notification listing.
// Category, when set, filters on the denormalized snapshot category.
type ListFilter struct {
	Category *string
	Page     int
	Limit    int
}

// Normalize clamps page and limit to sane values. Defaults match the
// API contract: page 1, 10 items, at most 100 per page.
func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
}

// Page is the paginated response shape served by the read API.
type Page struct {
	Notifications []*Notification `json:"notifications"`
	TotalPages    int             `json:"totalPages"`
	CurrentPage   int             `json:"currentPage"`
	Total         int             `json:"total"`
}

// NewPage assembles a response page. TotalPages == ceil(total/limit) always.
func NewPage(notifications []*Notification, total, page, limit int) *Page {
	if notifications == nil {
		notifications = []*Notification{}
	}
	return &Page{
		Notifications: notifications,
		TotalPages:    int(math.Ceil(float64(total) / float64(limit))),
		CurrentPage:   page,
		Total:         total,
	}
}
