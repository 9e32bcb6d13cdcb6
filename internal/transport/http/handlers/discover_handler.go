package handlers

import (
	"net/http"

	inboxsvc "github.com/ivankudzin/tgapp/matchengine/internal/services/inbox"
	"github.com/ivankudzin/tgapp/matchengine/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/tgapp/matchengine/internal/transport/http/errors"
)

type DiscoverHandler struct {
	inbox *inboxsvc.Service
}

func NewDiscoverHandler(inbox *inboxsvc.Service) *DiscoverHandler {
	return &DiscoverHandler{inbox: inbox}
}

func (h *DiscoverHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r, "inbox", h.inbox != nil)
	if !ok {
		return
	}

	users, err := h.inbox.DiscoverQueue(r.Context(), identity.UserID, parseIntOrDefault(r.URL.Query().Get("limit"), 0))
	if err != nil {
		writeServiceError(w, err, "failed to load discover queue")
		return
	}

	items := make([]dto.UserCardResponse, 0, len(users))
	for _, u := range users {
		items = append(items, mapUserCard(u))
	}
	httperrors.Write(w, http.StatusOK, dto.DiscoverResponse{Items: items})
}
