package handlers

import (
	"net/http"

	notificationsvc "github.com/ivankudzin/tgapp/matchengine/internal/services/notifications"
	"github.com/ivankudzin/tgapp/matchengine/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/tgapp/matchengine/internal/transport/http/errors"
)

type NotificationsHandler struct {
	service *notificationsvc.Service
}

func NewNotificationsHandler(service *notificationsvc.Service) *NotificationsHandler {
	return &NotificationsHandler{service: service}
}

func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r, "notifications", h.service != nil)
	if !ok {
		return
	}

	items, err := h.service.List(r.Context(), identity.UserID, parseIntOrDefault(r.URL.Query().Get("limit"), 0))
	if err != nil {
		writeServiceError(w, err, "failed to load notifications")
		return
	}
	unread, err := h.service.UnreadCount(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, err, "failed to load notifications")
		return
	}

	resp := dto.NotificationsResponse{
		Items:       make([]dto.NotificationResponse, 0, len(items)),
		UnreadCount: unread,
	}
	for _, n := range items {
		resp.Items = append(resp.Items, mapNotification(n))
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *NotificationsHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r, "notifications", h.service != nil)
	if !ok {
		return
	}

	unread, err := h.service.UnreadCount(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, err, "failed to count notifications")
		return
	}
	httperrors.Write(w, http.StatusOK, dto.UnreadCountResponse{UnreadCount: unread})
}

func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r, "notifications", h.service != nil)
	if !ok {
		return
	}

	notificationID, ok := uuidParam(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid notification id")
		return
	}

	n, err := h.service.MarkRead(r.Context(), notificationID, identity.UserID)
	if err != nil {
		writeServiceError(w, err, "failed to mark notification read")
		return
	}
	httperrors.Write(w, http.StatusOK, mapNotification(n))
}

func (h *NotificationsHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r, "notifications", h.service != nil)
	if !ok {
		return
	}

	updated, err := h.service.MarkAllRead(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, err, "failed to mark notifications read")
		return
	}
	httperrors.Write(w, http.StatusOK, dto.MarkAllReadResponse{OK: true, Updated: updated})
}
