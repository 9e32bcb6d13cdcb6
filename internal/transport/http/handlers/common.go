package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ivankudzin/tgapp/matchengine/internal/domain/apperr"
	"github.com/ivankudzin/tgapp/matchengine/internal/domain/model"
	authsvc "github.com/ivankudzin/tgapp/matchengine/internal/services/auth"
	ratesvc "github.com/ivankudzin/tgapp/matchengine/internal/services/rate"
	"github.com/ivankudzin/tgapp/matchengine/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/tgapp/matchengine/internal/transport/http/errors"
)

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

// caller resolves the authenticated user. When the request cannot proceed it writes the 401 or 500
// answer itself and reports false.
func caller(w http.ResponseWriter, r *http.Request, service string, ready bool) (authsvc.Identity, bool) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, httperrors.CodeUnauthorized, "authentication required")
		return authsvc.Identity{}, false
	}
	if !ready {
		writeInternal(w, strings.ToUpper(service)+"_SERVICE_UNAVAILABLE", service+" service is unavailable")
		return authsvc.Identity{}, false
	}
	return identity, true
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

// writeServiceError maps the engine's error taxonomy onto HTTP. fallback is the message used for
// unexpected failures, which never leak their cause to the client.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	if tf, ok := ratesvc.IsTooFast(err); ok {
		httperrors.WriteTooFast(w, "too many actions, slow down", tf.RetryAfter(), time.Now())
		return
	}

	switch {
	case errors.Is(err, apperr.ErrValidation):
		writeBadRequest(w, httperrors.CodeValidation, trimSentinel(err, apperr.ErrValidation))
	case errors.Is(err, apperr.ErrNotFound):
		httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: httperrors.CodeNotFound, Message: trimSentinel(err, apperr.ErrNotFound)})
	case errors.Is(err, apperr.ErrNotAuthorized):
		httperrors.Write(w, http.StatusForbidden, httperrors.APIError{Code: httperrors.CodeForbidden, Message: trimSentinel(err, apperr.ErrNotAuthorized)})
	case errors.Is(err, apperr.ErrInactiveMatch):
		httperrors.Write(w, http.StatusConflict, httperrors.APIError{Code: httperrors.CodeMatchInactive, Message: "match is no longer active"})
	case errors.Is(err, apperr.ErrConflict):
		httperrors.Write(w, http.StatusConflict, httperrors.APIError{Code: httperrors.CodeConflict, Message: "concurrent update, retry the request"})
	default:
		writeInternal(w, httperrors.CodeInternal, fallback)
	}
}

// trimSentinel turns "validation error: content is empty" into "content is empty".
func trimSentinel(err, sentinel error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok && rest != "" {
		return rest
	}
	return msg
}

func parseIntOrDefault(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

func parseInt64OrDefault(raw string, fallback int64) int64 {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return fallback
	}
	return value
}

func uuidParam(r *http.Request, key string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, key)))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func mapUserCard(u model.UserSummary) dto.UserCardResponse {
	photos := u.Photos
	if photos == nil {
		photos = []string{}
	}
	return dto.UserCardResponse{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Age:         u.Age,
		Location:    u.Location,
		Bio:         u.Bio,
		Photos:      photos,
		Verified:    u.Verified,
		Online:      u.Online,
	}
}

func mapMessage(m model.Message) dto.MessageResponse {
	return dto.MessageResponse{
		ID:       m.ID.String(),
		MatchID:  m.MatchID.String(),
		SenderID: m.SenderID,
		Seq:      m.Seq,
		Content:  m.Content,
		SentAt:   m.SentAt,
	}
}

func mapNotification(n model.Notification) dto.NotificationResponse {
	data := n.Data
	if data == nil {
		data = map[string]any{}
	}
	return dto.NotificationResponse{
		ID:        n.ID.String(),
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Body,
		Data:      data,
		CreatedAt: n.CreatedAt,
		Read:      n.Read,
		ReadAt:    n.ReadAt,
	}
}
