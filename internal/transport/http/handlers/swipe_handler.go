package handlers

import (
	"net/http"
	"strings"

	"github.com/ivankudzin/tgapp/matchengine/internal/domain/enums"
	swipesvc "github.com/ivankudzin/tgapp/matchengine/internal/services/swipes"
	"github.com/ivankudzin/tgapp/matchengine/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/tgapp/matchengine/internal/transport/http/errors"
)

type SwipeHandler struct {
	service *swipesvc.Service
}

func NewSwipeHandler(service *swipesvc.Service) *SwipeHandler {
	return &SwipeHandler{service: service}
}

// Handle records a like or pass. A repeated call with the same body converges on the same answer.
func (h *SwipeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r, "swipe", h.service != nil)
	if !ok {
		return
	}

	var req dto.SwipeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, httperrors.CodeValidation, "invalid request body")
		return
	}
	target := req.Target()
	action := strings.TrimSpace(req.Action)
	if target <= 0 || action == "" {
		writeBadRequest(w, httperrors.CodeValidation, "target_id and action are required")
		return
	}

	result, err := h.service.RecordSwipe(r.Context(), identity.UserID, target, enums.SwipeAction(action))
	if err != nil {
		writeServiceError(w, err, "failed to process swipe")
		return
	}
	httperrors.Write(w, http.StatusOK, swipeResponse(result))
}

func swipeResponse(result swipesvc.Result) dto.SwipeResponse {
	resp := dto.SwipeResponse{
		OK:           true,
		IsMatch:      result.Matched,
		MatchCreated: result.MatchCreated,
	}
	if result.MatchID != nil {
		id := result.MatchID.String()
		resp.MatchID = &id
	}
	return resp
}
