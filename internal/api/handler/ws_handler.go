package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/bookhub/notification-service/internal/auth"
	"github.com/bookhub/notification-service/internal/domain"
	"github.com/bookhub/notification-service/internal/ws"
)

// WSHandler upgrades authenticated requests to live delivery connections.
//
// The token is verified before the upgrade: a connection without a valid
// token is rejected with 401 and never reaches the hub.
type WSHandler struct {
	hub        *ws.Hub
	verifier   auth.Verifier
	sendBuffer int
	upgrader   websocket.Upgrader
	logger     *zap.Logger
}

func NewWSHandler(hub *ws.Hub, verifier auth.Verifier, sendBuffer int, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		hub:        hub,
		verifier:   verifier,
		sendBuffer: sendBuffer,
		upgrader: websocket.Upgrader{
			// Token auth gates the endpoint; origin checks belong to the gateway.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Connect handles GET /ws. The token comes from the Authorization header or,
// for browser clients, the "token" query parameter.
func (h *WSHandler) Connect(w http.ResponseWriter, r *http.Request) {
	token := auth.ExtractToken(r)
	if token == "" {
		respondError(w, http.StatusUnauthorized, domain.ErrUnauthorized.Error())
		return
	}

	identity, err := h.verifier.Verify(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrForbidden):
			respondError(w, http.StatusUnauthorized, domain.ErrUnauthorized.Error())
		default:
			h.logger.Error("ws token verification failed", zap.Error(err))
			respondError(w, http.StatusServiceUnavailable, "authentication service unavailable")
		}
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote its own response.
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	client := ws.NewClient(h.hub, conn, identity.UserID, h.sendBuffer, h.logger)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
