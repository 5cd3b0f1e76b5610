// Package consumer holds the fan-out engine: it turns one domain event into
// one durable notification per interested user plus a best-effort live push.
package consumer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bookhub/notification-service/internal/bus"
	"github.com/bookhub/notification-service/internal/domain"
	"github.com/bookhub/notification-service/internal/service"
	"github.com/bookhub/notification-service/internal/ws"
)

// Pusher is the live delivery surface the engine needs. Pushes are
// best-effort; a user with no active connection is a silent no-op.
type Pusher interface {
	PushToUser(userID string, msg *ws.Message)
	PushToCategory(category string, msg *ws.Message)
}

// MetricHooks carries the metric callback functions injected by main.
// Using a struct keeps the engine constructor signature clean.
type MetricHooks struct {
	OnConsumed func(eventType string)
	OnRejected func()
	OnRequeued func()
	OnFanned   func(latency time.Duration)
	OnFailed   func()
}

func (h *MetricHooks) normalize() {
	if h.OnConsumed == nil {
		h.OnConsumed = func(string) {}
	}
	if h.OnRejected == nil {
		h.OnRejected = func() {}
	}
	if h.OnRequeued == nil {
		h.OnRequeued = func() {}
	}
	if h.OnFanned == nil {
		h.OnFanned = func(time.Duration) {}
	}
	if h.OnFailed == nil {
		h.OnFailed = func() {}
	}
}

// Engine consumes decoded domain events and fans them out.
//
// Failure isolation: each interested user is an independent unit of work.
// A failed write is logged and skipped, never fatal to the batch, and never
// crashes the process. The message is acknowledged only after every unit has
// been attempted.
type Engine struct {
	svc     *service.NotificationService
	pusher  Pusher
	limiter *rate.Limiter
	workers int
	hooks   MetricHooks
	logger  *zap.Logger
}

func NewEngine(
	svc *service.NotificationService,
	pusher Pusher,
	writesPerSec int,
	workers int,
	hooks MetricHooks,
	logger *zap.Logger,
) *Engine {
	hooks.normalize()
	if workers < 1 {
		workers = 1
	}
	// A zero rate would make every limiter wait fail and the whole fan-out
	// silently skip while still acking.
	if writesPerSec < 1 {
		writesPerSec = 1
	}
	return &Engine{
		svc:     svc,
		pusher:  pusher,
		limiter: rate.NewLimiter(rate.Limit(writesPerSec), writesPerSec),
		workers: workers,
		hooks:   hooks,
		logger:  logger,
	}
}

// Handle is the bus handler: decode, dispatch, decide the acknowledgement.
//
//	malformed payload  → Reject (poison message, no requeue)
//	unknown event type → Ack (logged and dropped, not an error)
//	processed          → Ack, even with logged partial failures
//	interrupted        → Requeue so another consumer attempt can occur
func (e *Engine) Handle(ctx context.Context, body []byte) (action bus.Action) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic during event dispatch", zap.Any("panic", r))
			e.hooks.OnRequeued()
			action = bus.Requeue
		}
	}()

	event, err := domain.DecodeEvent(body)
	switch {
	case errors.Is(err, domain.ErrUnknownEventType):
		e.logger.Warn("dropping event of unknown type", zap.Error(err))
		return bus.Ack
	case err != nil:
		e.logger.Error("rejecting malformed event", zap.Error(err))
		e.hooks.OnRejected()
		return bus.Reject
	}

	e.hooks.OnConsumed(string(event.EventType()))

	switch ev := event.(type) {
	case domain.NewBookEvent:
		e.fanOut(ctx, ev)
	}

	// A shutdown mid-fan-out leaves unknown progress behind; requeue and let
	// the dedup index absorb the overlap on redelivery.
	if ctx.Err() != nil {
		e.hooks.OnRequeued()
		return bus.Requeue
	}
	return bus.Ack
}

// fanOut creates one notification per interested user through a bounded
// worker pool. Per-user completions interleave arbitrarily; nothing here
// depends on their relative order.
func (e *Engine) fanOut(ctx context.Context, ev domain.NewBookEvent) {
	if len(ev.InterestedUsers) == 0 {
		e.logger.Debug("no interested users, nothing to fan out",
			zap.String("book_id", ev.Book.ID))
		return
	}

	start := time.Now()
	jobs := make(chan string)

	var wg sync.WaitGroup
	workers := e.workers
	if workers > len(ev.InterestedUsers) {
		workers = len(ev.InterestedUsers)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for userID := range jobs {
				e.notifyUser(ctx, ev, userID, start)
			}
		}()
	}

	for _, userID := range ev.InterestedUsers {
		jobs <- userID
	}
	close(jobs)
	wg.Wait()

	// Category subscribers get one announcement per event, without any
	// per-user record attached.
	e.pusher.PushToCategory(ev.Book.Category, &ws.Message{
		Event: ws.EventNotifications,
		Type:  domain.TypeNewBook,
		Notification: &domain.Notification{
			Type: domain.TypeNewBook,
			Data: snapshot(ev.Book),
		},
	})

	e.logger.Info("fan-out complete",
		zap.String("book_id", ev.Book.ID),
		zap.Int("interested_users", len(ev.InterestedUsers)),
		zap.Duration("elapsed", time.Since(start)))
}

// notifyUser is one unit of work: rate-limited store write, then live push.
func (e *Engine) notifyUser(ctx context.Context, ev domain.NewBookEvent, userID string, start time.Time) {
	if err := e.limiter.Wait(ctx); err != nil {
		// ctx cancelled while waiting; Handle requeues the whole message.
		return
	}

	n := e.buildNotification(ev, userID)
	if err := e.svc.CreateFromFanout(ctx, n); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			// Redelivered message; this user was already notified.
			e.logger.Debug("skipping duplicate notification",
				zap.String("user_id", userID), zap.String("event_id", ev.EventID))
			return
		}
		e.logger.Error("notification write failed, skipping user",
			zap.String("user_id", userID),
			zap.String("book_id", ev.Book.ID),
			zap.Error(err))
		e.hooks.OnFailed()
		return
	}
	e.hooks.OnFanned(time.Since(start))

	e.pusher.PushToUser(userID, &ws.Message{
		Event:        ws.EventNewBook,
		Type:         domain.TypeNewBook,
		Notification: n,
	})
}

func (e *Engine) buildNotification(ev domain.NewBookEvent, userID string) *domain.Notification {
	now := time.Now().UTC()
	n := &domain.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      domain.TypeNewBook,
		Data:      snapshot(ev.Book),
		Read:      false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ev.EventID != "" {
		eventID := ev.EventID
		n.EventID = &eventID
	}
	return n
}

func snapshot(b domain.Book) domain.NotificationData {
	return domain.NotificationData{
		BookID:   b.ID,
		Title:    b.Title,
		Author:   b.Author,
		Category: b.Category,
		Price:    b.Price,
		Message:  domain.NotificationMessage(b),
	}
}
