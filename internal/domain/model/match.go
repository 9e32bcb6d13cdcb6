package model

import (
	"time"

	"github.com/google/uuid"
)

// Match pairs two users. UserAID is always the smaller id so the pair has one representation.
type Match struct {
	ID             uuid.UUID  `json:"id"`
	UserAID        int64      `json:"user_a_id"`
	UserBID        int64      `json:"user_b_id"`
	CreatedAt      time.Time  `json:"created_at"`
	Active         bool       `json:"active"`
	DeactivatedAt  *time.Time `json:"deactivated_at,omitempty"`
	LastMessageSeq int64      `json:"last_message_seq"`
}

func (m Match) HasParticipant(userID int64) bool {
	return userID > 0 && (m.UserAID == userID || m.UserBID == userID)
}

// Other returns the counterpart of userID, or 0 when userID is not a participant.
func (m Match) Other(userID int64) int64 {
	switch userID {
	case m.UserAID:
		return m.UserBID
	case m.UserBID:
		return m.UserAID
	default:
		return 0
	}
}
