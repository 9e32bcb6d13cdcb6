package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/ivankudzin/tgapp/matchengine/internal/domain/enums"
)

type Notification struct {
	ID          uuid.UUID              `json:"id"`
	RecipientID int64                  `json:"recipient_id"`
	Type        enums.NotificationType `json:"type"`
	Title       string                 `json:"title"`
	Body        string                 `json:"message"`
	Data        map[string]any         `json:"data"`
	// DedupeKey identifies the logical event; one notification per recipient and key.
	DedupeKey string     `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}
