// Package ws implements the live delivery channel: per-user rooms over
// websocket connections, with optional per-category rooms.
//
// Room membership lives in process memory. There is no queuing or replay for
// disconnected members; the persisted notification store is the durable
// source of truth they catch up from.
package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/bookhub/notification-service/internal/domain"
)

// Message is the wire envelope pushed to clients.
type Message struct {
	Event        string                  `json:"event"`
	Type         domain.NotificationType `json:"type"`
	Notification *domain.Notification    `json:"notification"`
}

// Event names emitted to clients.
const (
	EventNewBook       = "new-book"
	EventNotifications = "notifications"
)

// Hub tracks every live connection, grouped by user and by subscribed
// category. A user may hold any number of simultaneous connections; a push
// reaches all of them. All methods are safe for concurrent use.
type Hub struct {
	mu         sync.RWMutex
	users      map[string]map[*Client]struct{}
	categories map[string]map[*Client]struct{}
	logger     *zap.Logger

	// Gauge hooks, injected by main (nil = no-op).
	onConnect    func()
	onDisconnect func()
}

func NewHub(logger *zap.Logger, onConnect, onDisconnect func()) *Hub {
	if onConnect == nil {
		onConnect = func() {}
	}
	if onDisconnect == nil {
		onDisconnect = func() {}
	}
	return &Hub{
		users:        make(map[string]map[*Client]struct{}),
		categories:   make(map[string]map[*Client]struct{}),
		logger:       logger,
		onConnect:    onConnect,
		onDisconnect: onDisconnect,
	}
}

// Register joins the client to its per-user room. The client is only ever
// registered after its token was verified; an unauthenticated connection
// never reaches the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.users[c.userID] == nil {
		h.users[c.userID] = make(map[*Client]struct{})
	}
	h.users[c.userID][c] = struct{}{}
	h.mu.Unlock()

	h.onConnect()
	h.logger.Info("ws client joined", zap.String("user_id", c.userID))
}

// Unregister tears down all room memberships and closes the client.
// Safe to call more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, registered := h.users[c.userID][c]
	if registered {
		h.removeLocked(c)
	}
	h.mu.Unlock()

	if registered {
		c.close()
		h.onDisconnect()
		h.logger.Info("ws client left", zap.String("user_id", c.userID))
	}
}

func (h *Hub) removeLocked(c *Client) {
	if room, ok := h.users[c.userID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.users, c.userID)
		}
	}
	for cat := range c.categories {
		h.leaveCategoryLocked(c, cat)
	}
}

func (h *Hub) leaveCategoryLocked(c *Client, category string) {
	if room, ok := h.categories[category]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.categories, category)
		}
	}
	delete(c.categories, category)
}

// ReplaceCategories joins the client to the given category rooms, leaving
// every category room it was in before. Each subscription request fully
// replaces the previous set.
func (h *Hub) ReplaceCategories(c *Client, categories []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for cat := range c.categories {
		h.leaveCategoryLocked(c, cat)
	}
	for _, cat := range categories {
		if cat == "" {
			continue
		}
		if h.categories[cat] == nil {
			h.categories[cat] = make(map[*Client]struct{})
		}
		h.categories[cat][c] = struct{}{}
		c.categories[cat] = struct{}{}
	}
}

// PushToUser delivers msg to every connection in the user's room.
// Delivery is best-effort: no room means no-op, and a slow consumer whose
// send buffer is full is detached rather than allowed to block the push.
func (h *Hub) PushToUser(userID string, msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("ws marshal failed", zap.Error(err))
		return
	}

	h.mu.RLock()
	targets := h.collectLocked(h.users[userID])
	h.mu.RUnlock()

	h.send(targets, data)
}

// PushToCategory delivers msg to every connection subscribed to the category
// room. Like user rooms, an empty room is a no-op.
func (h *Hub) PushToCategory(category string, msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("ws marshal failed", zap.Error(err))
		return
	}

	h.mu.RLock()
	targets := h.collectLocked(h.categories[category])
	h.mu.RUnlock()

	h.send(targets, data)
}

func (h *Hub) collectLocked(room map[*Client]struct{}) []*Client {
	targets := make([]*Client, 0, len(room))
	for c := range room {
		targets = append(targets, c)
	}
	return targets
}

// send delivers data to each target through Client.trySend, which absorbs
// the race against a concurrent disconnect. A full buffer means the consumer
// stopped draining; detach it instead of letting it block future pushes.
func (h *Hub) send(targets []*Client, data []byte) {
	for _, c := range targets {
		if !c.trySend(data) {
			h.logger.Warn("ws send buffer full, detaching client",
				zap.String("user_id", c.userID))
			go h.Unregister(c)
		}
	}
}

// Stats is the JSON snapshot served by the stats endpoint.
type Stats struct {
	Users       int `json:"users"`
	Connections int `json:"connections"`
	Categories  int `json:"categories"`
}

func (h *Hub) Snapshot() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	connections := 0
	for _, room := range h.users {
		connections += len(room)
	}
	return Stats{
		Users:       len(h.users),
		Connections: connections,
		Categories:  len(h.categories),
	}
}
