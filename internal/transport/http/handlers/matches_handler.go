package handlers

import (
	"net/http"

	inboxsvc "github.com/ivankudzin/tgapp/matchengine/internal/services/inbox"
	matchessvc "github.com/ivankudzin/tgapp/matchengine/internal/services/matches"
	"github.com/ivankudzin/tgapp/matchengine/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/tgapp/matchengine/internal/transport/http/errors"
)

type MatchesHandler struct {
	inbox   *inboxsvc.Service
	matches *matchessvc.Service
}

func NewMatchesHandler(inbox *inboxsvc.Service, matches *matchessvc.Service) *MatchesHandler {
	return &MatchesHandler{inbox: inbox, matches: matches}
}

func (h *MatchesHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r, "inbox", h.inbox != nil)
	if !ok {
		return
	}

	previews, err := h.inbox.MatchesWithPreview(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, err, "failed to load matches")
		return
	}

	items := make([]dto.MatchItemResponse, 0, len(previews))
	for _, p := range previews {
		item := dto.MatchItemResponse{
			ID:             p.Match.ID.String(),
			Active:         p.Match.Active,
			CreatedAt:      p.Match.CreatedAt,
			OtherUser:      mapUserCard(p.OtherUser),
			LastActivityAt: p.LastActivityAt,
		}
		if p.LastMessage != nil {
			msg := mapMessage(*p.LastMessage)
			item.LastMessage = &msg
		}
		items = append(items, item)
	}
	httperrors.Write(w, http.StatusOK, dto.MatchesResponse{Items: items})
}

func (h *MatchesHandler) Unmatch(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r, "matches", h.matches != nil)
	if !ok {
		return
	}

	matchID, ok := uuidParam(r, "match_id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid match id")
		return
	}

	changed, err := h.matches.Unmatch(r.Context(), identity.UserID, matchID)
	if err != nil {
		writeServiceError(w, err, "failed to unmatch")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UnmatchResponse{OK: true, Changed: changed})
}
