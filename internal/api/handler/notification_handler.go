package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apimw "github.com/bookhub/notification-service/internal/api/middleware"
	"github.com/bookhub/notification-service/internal/domain"
	"github.com/bookhub/notification-service/internal/service"
)

// NotificationHandler handles the notification read and mutation endpoints.
// Every route is authenticated; the owning user comes from the request
// identity, never from the URL.
type NotificationHandler struct {
	svc    *service.NotificationService
	logger *zap.Logger
}

func NewNotificationHandler(svc *service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{svc: svc, logger: logger}
}

// List handles GET /api/notifications
//
// @Summary  List the caller's notifications, newest first
// @Tags     notifications
// @Produce  json
// @Param    page   query     int  false  "Page number (default 1)"
// @Param    limit  query     int  false  "Items per page (default 10, max 100)"
// @Success  200    {object}  domain.Page
// @Router   /api/notifications [get]
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := apimw.GetIdentity(r.Context()).UserID
	filter := parseListFilter(r)

	page, err := h.svc.List(r.Context(), userID, filter)
	if err != nil {
		h.logger.Error("list notifications failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "failed to list notifications")
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// ListByCategory handles GET /api/notifications/category/{category}
//
// @Summary  List the caller's notifications filtered by book category
// @Tags     notifications
// @Produce  json
// @Param    category  path      string  true   "Category name"
// @Param    page      query     int     false  "Page number"
// @Param    limit     query     int     false  "Items per page"
// @Success  200       {object}  domain.Page
// @Router   /api/notifications/category/{category} [get]
func (h *NotificationHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	userID := apimw.GetIdentity(r.Context()).UserID
	category := chi.URLParam(r, "category")

	filter := parseListFilter(r)
	filter.Category = &category

	page, err := h.svc.List(r.Context(), userID, filter)
	if err != nil {
		h.logger.Error("list by category failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.String("category", category),
			zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "failed to list notifications")
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// UnreadCount handles GET /api/notifications/unread/count
//
// @Summary  Count of the caller's unread notifications
// @Tags     notifications
// @Produce  json
// @Success  200  {object}  map[string]int
// @Router   /api/notifications/unread/count [get]
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := apimw.GetIdentity(r.Context()).UserID

	count, err := h.svc.UnreadCount(r.Context(), userID)
	if err != nil {
		h.logger.Error("unread count failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "failed to count notifications")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"count": count})
}

// MarkRead handles PUT /api/notifications/{id}/read
//
// @Summary  Mark one notification as read
// @Tags     notifications
// @Produce  json
// @Param    id   path      string  true  "Notification UUID"
// @Success  200  {object}  map[string]any
// @Failure  404  {object}  errorEnvelope
// @Router   /api/notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := apimw.GetIdentity(r.Context()).UserID
	id := chi.URLParam(r, "id")

	n, unread, err := h.svc.MarkRead(r.Context(), userID, id)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"notification": n,
		"unreadCount":  unread,
	})
}

// MarkAllRead handles PUT /api/notifications/mark-all-read
//
// @Summary  Mark all of the caller's notifications as read
// @Tags     notifications
// @Produce  json
// @Success  200  {object}  map[string]any
// @Router   /api/notifications/mark-all-read [put]
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID := apimw.GetIdentity(r.Context()).UserID

	updated, err := h.svc.MarkAllRead(r.Context(), userID)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "All notifications marked as read",
		"updated": updated,
	})
}

// Delete handles DELETE /api/notifications/{id}
//
// @Summary  Delete one of the caller's notifications
// @Tags     notifications
// @Produce  json
// @Param    id   path      string  true  "Notification UUID"
// @Success  200  {object}  map[string]any
// @Failure  404  {object}  errorEnvelope
// @Router   /api/notifications/{id} [delete]
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := apimw.GetIdentity(r.Context()).UserID
	id := chi.URLParam(r, "id")

	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Notification deleted successfully",
	})
}

func parseListFilter(r *http.Request) domain.ListFilter {
	q := r.URL.Query()
	filter := domain.ListFilter{Page: 1, Limit: 10}

	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		filter.Page = p
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 && l <= 100 {
		filter.Limit = l
	}
	return filter
}
