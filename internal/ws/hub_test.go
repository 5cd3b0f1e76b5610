package ws

import (
	"encoding/json"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/bookhub/notification-service/internal/domain"
)

// newTestClient builds a client with no underlying socket; pushes land in the
// send buffer where tests can read them directly.
func newTestClient(h *Hub, userID string, buffer int) *Client {
	return NewClient(h, nil, userID, buffer, zap.NewNop())
}

func drain(t *testing.T, c *Client) *Message {
	t.Helper()
	select {
	case data := <-c.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		return &msg
	default:
		t.Fatal("expected a buffered frame")
		return nil
	}
}

func assertEmpty(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected frame: %s", data)
	default:
	}
}

func TestPushToUser_ReachesEveryConnection(t *testing.T) {
	h := NewHub(zap.NewNop(), nil, nil)
	c1 := newTestClient(h, "u1", 4)
	c2 := newTestClient(h, "u1", 4)
	other := newTestClient(h, "u2", 4)
	h.Register(c1)
	h.Register(c2)
	h.Register(other)

	h.PushToUser("u1", &Message{
		Event:        EventNewBook,
		Type:         domain.TypeNewBook,
		Notification: &domain.Notification{ID: "n1", UserID: "u1"},
	})

	for _, c := range []*Client{c1, c2} {
		msg := drain(t, c)
		if msg.Event != EventNewBook || msg.Notification.ID != "n1" {
			t.Fatalf("unexpected frame: %+v", msg)
		}
	}
	assertEmpty(t, other)
}

func TestPushToUser_NoRoomIsNoOp(t *testing.T) {
	h := NewHub(zap.NewNop(), nil, nil)
	h.PushToUser("nobody", &Message{Event: EventNewBook})
}

func TestPushToCategory(t *testing.T) {
	h := NewHub(zap.NewNop(), nil, nil)
	sub := newTestClient(h, "u1", 4)
	nonSub := newTestClient(h, "u2", 4)
	h.Register(sub)
	h.Register(nonSub)
	h.ReplaceCategories(sub, []string{"TECH"})

	h.PushToCategory("TECH", &Message{Event: EventNotifications, Type: domain.TypeNewBook})

	if msg := drain(t, sub); msg.Event != EventNotifications {
		t.Fatalf("unexpected frame: %+v", msg)
	}
	assertEmpty(t, nonSub)
}

func TestReplaceCategories_FullyReplacesPreviousSet(t *testing.T) {
	h := NewHub(zap.NewNop(), nil, nil)
	c := newTestClient(h, "u1", 4)
	h.Register(c)

	h.ReplaceCategories(c, []string{"TECH", "FICTION"})
	h.ReplaceCategories(c, []string{"HISTORY"})

	h.PushToCategory("TECH", &Message{Event: EventNotifications})
	h.PushToCategory("FICTION", &Message{Event: EventNotifications})
	assertEmpty(t, c)

	h.PushToCategory("HISTORY", &Message{Event: EventNotifications})
	drain(t, c)

	if got := h.Snapshot().Categories; got != 1 {
		t.Fatalf("expected 1 live category room, got %d", got)
	}
}

func TestReplaceCategories_EmptySetLeavesAllRooms(t *testing.T) {
	h := NewHub(zap.NewNop(), nil, nil)
	c := newTestClient(h, "u1", 4)
	h.Register(c)
	h.ReplaceCategories(c, []string{"TECH"})

	h.ReplaceCategories(c, nil)

	if got := h.Snapshot().Categories; got != 0 {
		t.Fatalf("expected empty category rooms to be dropped, got %d", got)
	}
}

func TestPushAfterDisconnectIsDropped(t *testing.T) {
	h := NewHub(zap.NewNop(), nil, nil)
	c := newTestClient(h, "u1", 1)
	h.Register(c)

	// Snapshot the room the way an in-flight push does, then lose the race
	// against the disconnect.
	h.mu.RLock()
	targets := h.collectLocked(h.users["u1"])
	h.mu.RUnlock()
	h.Unregister(c)

	// Must neither panic nor deliver.
	h.send(targets, []byte(`{}`))
}

func TestPushRacingDisconnect(t *testing.T) {
	h := NewHub(zap.NewNop(), nil, nil)

	for i := 0; i < 100; i++ {
		c := newTestClient(h, "u1", 1)
		h.Register(c)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			h.PushToUser("u1", &Message{Event: EventNewBook, Type: domain.TypeNewBook})
		}()
		go func() {
			defer wg.Done()
			h.Unregister(c)
		}()
		wg.Wait()
	}

	if got := h.Snapshot().Connections; got != 0 {
		t.Fatalf("expected empty hub, got %d connections", got)
	}
}

func TestUnregister_RemovesAllMemberships(t *testing.T) {
	h := NewHub(zap.NewNop(), nil, nil)
	c := newTestClient(h, "u1", 4)
	h.Register(c)
	h.ReplaceCategories(c, []string{"TECH"})

	h.Unregister(c)

	stats := h.Snapshot()
	if stats.Users != 0 || stats.Connections != 0 || stats.Categories != 0 {
		t.Fatalf("expected empty hub after unregister, got %+v", stats)
	}
}

func TestUnregister_Idempotent(t *testing.T) {
	connects, disconnects := 0, 0
	h := NewHub(zap.NewNop(),
		func() { connects++ },
		func() { disconnects++ })
	c := newTestClient(h, "u1", 4)
	h.Register(c)

	h.Unregister(c)
	h.Unregister(c)

	if connects != 1 || disconnects != 1 {
		t.Fatalf("expected 1 connect / 1 disconnect, got %d/%d", connects, disconnects)
	}
}

func TestSnapshot(t *testing.T) {
	h := NewHub(zap.NewNop(), nil, nil)
	h.Register(newTestClient(h, "u1", 4))
	h.Register(newTestClient(h, "u1", 4))
	h.Register(newTestClient(h, "u2", 4))

	stats := h.Snapshot()
	if stats.Users != 2 {
		t.Fatalf("expected 2 users, got %d", stats.Users)
	}
	if stats.Connections != 3 {
		t.Fatalf("expected 3 connections, got %d", stats.Connections)
	}
}
