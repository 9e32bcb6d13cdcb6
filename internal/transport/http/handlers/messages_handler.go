package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	conversationsvc "github.com/ivankudzin/tgapp/matchengine/internal/services/conversations"
	"github.com/ivankudzin/tgapp/matchengine/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/tgapp/matchengine/internal/transport/http/errors"
)

type MessagesHandler struct {
	service *conversationsvc.Service
}

func NewMessagesHandler(service *conversationsvc.Service) *MessagesHandler {
	return &MessagesHandler{service: service}
}

// List serves both /v1/matches/{match_id}/messages and /v1/messages/{match_id}.
func (h *MessagesHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r, "messages", h.service != nil)
	if !ok {
		return
	}

	matchID, ok := uuidParam(r, "match_id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid match id")
		return
	}

	query := r.URL.Query()
	limit := parseIntOrDefault(query.Get("limit"), 0)
	var (
		page conversationsvc.Page
		err  error
	)
	if before := strings.TrimSpace(query.Get("before_seq")); before != "" {
		page, err = h.service.ListHistory(r.Context(), identity.UserID, matchID, parseInt64OrDefault(before, 0), limit)
	} else {
		page, err = h.service.ListMessages(r.Context(), identity.UserID, matchID, parseInt64OrDefault(query.Get("after_seq"), 0), limit)
	}
	if err != nil {
		writeServiceError(w, err, "failed to load messages")
		return
	}

	items := make([]dto.MessageResponse, 0, len(page.Messages))
	for _, m := range page.Messages {
		items = append(items, mapMessage(m))
	}
	httperrors.Write(w, http.StatusOK, dto.MessagesResponse{
		Items:        items,
		HasMore:      page.HasMore,
		NextAfterSeq: page.NextAfterSeq,
	})
}

func (h *MessagesHandler) Post(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r, "messages", h.service != nil)
	if !ok {
		return
	}

	var req dto.PostMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	matchID, err := uuid.Parse(strings.TrimSpace(req.MatchID))
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid match_id")
		return
	}

	msg, err := h.service.PostMessage(r.Context(), identity.UserID, matchID, req.Content)
	if err != nil {
		writeServiceError(w, err, "failed to post message")
		return
	}

	httperrors.Write(w, http.StatusCreated, mapMessage(msg))
}
