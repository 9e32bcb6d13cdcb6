package dto

import "time"

type PostMessageRequest struct {
	MatchID string `json:"match_id"`
	Content string `json:"content"`
}

type MessageResponse struct {
	ID       string    `json:"id"`
	MatchID  string    `json:"match_id"`
	SenderID int64     `json:"sender_id"`
	Seq      int64     `json:"seq"`
	Content  string    `json:"content"`
	SentAt   time.Time `json:"sent_at"`
}

type MessagesResponse struct {
	Items        []MessageResponse `json:"items"`
	HasMore      bool              `json:"has_more"`
	NextAfterSeq int64             `json:"next_after_seq"`
}
