package handler

import (
	"net/http"

	"github.com/osse101/StakeBot_Go/internal/logger"
	"github.com/osse101/StakeBot_Go/internal/notification"
)

// NotificationHandler serves the authenticated user's notification feed
type NotificationHandler struct {
	service notification.Service
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(service notification.Service) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (h *NotificationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	acting, ok := ActingUser(r, w)
	if !ok {
		return
	}

	limit := parseLimit(r, 0)
	unreadOnly := GetOptionalQueryParam(r, "unread", "false") == "true"

	notifications, err := h.service.List(r.Context(), acting, limit, unreadOnly)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, DataResponse{Data: notifications})
}

func (h *NotificationHandler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	acting, ok := ActingUser(r, w)
	if !ok {
		return
	}

	count, err := h.service.MarkAllRead(r.Context(), acting)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to mark notifications read", "error", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int64{"marked_read": count})
}
