package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func TestWritePump_WriteFailureUnregisters(t *testing.T) {
	h := NewHub(zap.NewNop(), nil, nil)
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer close(done)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}

		c := NewClient(h, conn, "u1", 4, zap.NewNop())
		h.Register(c)

		// Kill the socket underneath the pump; the queued frame's write
		// must fail and take the registration down with it.
		_ = conn.Close()
		if !c.trySend([]byte(`{}`)) {
			t.Error("send buffer unexpectedly full")
		}
		c.WritePump()
	}))
	defer srv.Close()

	clientConn, _, err := websocket.DefaultDialer.Dial(
		"ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer clientConn.Close()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("write pump did not exit")
	}

	if got := h.Snapshot().Connections; got != 0 {
		t.Fatalf("dead connection still registered: %d connections", got)
	}
}
