package handlers

import (
	"net/http"

	inboxsvc "github.com/ivankudzin/tgapp/matchengine/internal/services/inbox"
	"github.com/ivankudzin/tgapp/matchengine/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/tgapp/matchengine/internal/transport/http/errors"
)

type LikesHandler struct {
	inbox *inboxsvc.Service
}

func NewLikesHandler(inbox *inboxsvc.Service) *LikesHandler {
	return &LikesHandler{inbox: inbox}
}

func (h *LikesHandler) Received(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r, "inbox", h.inbox != nil)
	if !ok {
		return
	}

	likes, err := h.inbox.LikesReceived(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, err, "failed to load likes")
		return
	}

	items := make([]dto.LikeReceivedItem, 0, len(likes))
	for _, like := range likes {
		items = append(items, dto.LikeReceivedItem{
			User:    mapUserCard(like.User),
			LikedAt: like.LikedAt,
		})
	}
	httperrors.Write(w, http.StatusOK, dto.LikesReceivedResponse{Items: items})
}
