package model

import (
	"time"

	"github.com/ivankudzin/tgapp/matchengine/internal/domain/enums"
)

// Swipe is the live intent for one ordered pair; re-swiping overwrites it.
type Swipe struct {
	ActorUserID  int64             `json:"actor_user_id"`
	TargetUserID int64             `json:"target_user_id"`
	Action       enums.SwipeAction `json:"action"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}
