package handler

import (
	"net/http"

	"github.com/bookhub/notification-service/internal/ws"
)

// StatsHandler serves a human-readable JSON snapshot of the live delivery
// channel. Raw Prometheus metrics (counters, histograms) are available at
// /metrics via promhttp.Handler and are separate from this endpoint.
type StatsHandler struct {
	hub *ws.Hub
}

func NewStatsHandler(hub *ws.Hub) *StatsHandler {
	return &StatsHandler{hub: hub}
}

// GetStats handles GET /api/notifications/stats
//
// @Summary  Live connection snapshot
// @Tags     system
// @Produce  json
// @Success  200  {object}  map[string]any
// @Router   /api/notifications/stats [get]
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"live": h.hub.Snapshot(),
	})
}
