package model

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID       uuid.UUID `json:"id"`
	MatchID  uuid.UUID `json:"match_id"`
	SenderID int64     `json:"sender_id"`
	Seq      int64     `json:"seq"`
	Content  string    `json:"content"`
	SentAt   time.Time `json:"sent_at"`
}
