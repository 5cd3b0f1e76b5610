package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bookhub/notification-service/internal/api/handler"
	apimw "github.com/bookhub/notification-service/internal/api/middleware"
	"github.com/bookhub/notification-service/internal/auth"
	"github.com/bookhub/notification-service/internal/service"
	"github.com/bookhub/notification-service/internal/ws"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(
	svc *service.NotificationService,
	hub *ws.Hub,
	verifier auth.Verifier,
	wsSendBuffer int,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)          // recover panics, return 500
	r.Use(chimw.RealIP)             // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1<<20)) // 1 MB max request body
	r.Use(apimw.CorrelationID)      // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(logger))

	// --- handler instances ---
	nh := handler.NewNotificationHandler(svc, logger)
	sh := handler.NewStatsHandler(hub)
	hh := handler.NewHealthHandler()
	wh := handler.NewWSHandler(hub, verifier, wsSendBuffer, logger)

	// --- routes ---
	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint (for Prometheus server / Grafana)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// Live delivery handshake; the handler does its own token verification.
	r.Get("/ws", wh.Connect)

	r.Route("/api/notifications", func(r chi.Router) {
		r.Use(apimw.Auth(verifier, logger))

		// Literal paths must be registered before /{id} routes so chi
		// does not treat "mark-all-read" or "stats" as an ID.
		r.Put("/mark-all-read", nh.MarkAllRead)
		r.Get("/unread/count", nh.UnreadCount)
		r.Get("/stats", sh.GetStats)
		r.Get("/category/{category}", nh.ListByCategory)

		r.Get("/", nh.List)
		r.Put("/{id}/read", nh.MarkRead)
		r.Delete("/{id}", nh.Delete)
	})

	return r
}
