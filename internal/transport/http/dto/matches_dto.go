package dto

import "time"

type MatchItemResponse struct {
	ID             string           `json:"id"`
	Active         bool             `json:"active"`
	CreatedAt      time.Time        `json:"created_at"`
	OtherUser      UserCardResponse `json:"other_user"`
	LastMessage    *MessageResponse `json:"last_message"`
	LastActivityAt time.Time        `json:"last_activity_at"`
}

type MatchesResponse struct {
	Items []MatchItemResponse `json:"items"`
}

type UnmatchResponse struct {
	OK      bool `json:"ok"`
	Changed bool `json:"changed"`
}
