package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pingInterval  = 30 * time.Second
	pongWait      = 60 * time.Second
	writeWait     = 5 * time.Second
	maxMessageLen = 1 << 16
)

// Client is one live connection bound to a verified user identity.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	userID     string
	categories map[string]struct{}
	logger     *zap.Logger

	// mu guards closed and every operation on the send channel, so a push
	// racing a disconnect can never hit a closed channel.
	mu     sync.Mutex
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string, sendBuffer int, logger *zap.Logger) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBuffer),
		userID:     userID,
		categories: make(map[string]struct{}),
		logger:     logger,
	}
}

// UserID reports the identity this connection authenticated as.
func (c *Client) UserID() string { return c.userID }

// trySend queues data without blocking. It reports false only when the send
// buffer is full; a closed client swallows the push, the same no-op a user
// with no connection gets.
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// close marks the client dead, wakes WritePump via the channel close, and
// drops the socket. Idempotent.
func (c *Client) close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()

	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// command is the only inbound message shape clients may send.
type command struct {
	Action     string   `json:"action"`
	Categories []string `json:"categories"`
}

const actionSubscribeCategories = "subscribe-categories"

// ReadPump consumes client commands until the connection drops, then
// unregisters. Runs as the connection's foreground goroutine.
func (c *Client) ReadPump() {
	defer c.hub.Unregister(c)

	c.conn.SetReadLimit(maxMessageLen)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var cmd command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("ws read ended",
					zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		switch cmd.Action {
		case actionSubscribeCategories:
			c.hub.ReplaceCategories(c, cmd.Categories)
		default:
			// Unknown commands are ignored; the protocol is one-way
			// push apart from subscriptions.
		}
	}
}

// WritePump drains the send buffer to the socket and keeps the connection
// alive with pings. Runs in its own goroutine per connection. A write or
// ping failure unregisters immediately rather than leaving a dead
// connection registered until the read deadline fires.
func (c *Client) WritePump() {
	defer c.hub.Unregister(c)

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger.Debug("ws write failed",
					zap.String("user_id", c.userID), zap.Error(err))
				return
			}
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
