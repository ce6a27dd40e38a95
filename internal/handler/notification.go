package handler

import (
	"log/slog"
	"net/http"

	"github.com/socialnet-app/socialnet/internal/auth"
	"github.com/socialnet-app/socialnet/internal/model"
	"github.com/socialnet-app/socialnet/internal/service"
)

// NotificationHandler serves the notification dropdown: the list, the badge
// count and the read markers.
type NotificationHandler struct {
	notifications *service.NotificationService
	logger        *slog.Logger
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(notifications *service.NotificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger}
}

type notificationListResponse struct {
	Notifications []model.Notification `json:"notifications"`
	Unread        int                  `json:"unread"`
	Pagination    service.Pagination   `json:"pagination"`
}

// HandleList returns the viewer's notifications, newest first, plus the
// unread count for the badge.
//
// HTTP: GET /api/notifications?page&limit
func (h *NotificationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	page, limit := pageParams(r)

	list, meta, err := h.notifications.List(r.Context(), userID, page, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	unread, err := h.notifications.UnreadCount(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, notificationListResponse{
		Notifications: list,
		Unread:        unread,
		Pagination:    meta,
	})
}

// HandleMarkRead marks one notification read. 404 unless it belongs to the
// viewer.
//
// HTTP: POST /api/notifications/{id}/read
func (h *NotificationHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.notifications.MarkRead(r.Context(), r.PathValue("id"), userID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Notification marked as read"})
}

// HandleMarkAllRead clears the viewer's unread badge.
//
// HTTP: POST /api/notifications/read
func (h *NotificationHandler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.notifications.MarkAllRead(r.Context(), userID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "All notifications marked as read"})
}
