package dto

import "time"

type UserCardResponse struct {
	ID          int64    `json:"id"`
	DisplayName string   `json:"display_name"`
	Age         int      `json:"age"`
	Location    string   `json:"location"`
	Bio         string   `json:"bio,omitempty"`
	Photos      []string `json:"photos"`
	Verified    bool     `json:"verified"`
	Online      bool     `json:"online"`
}

type DiscoverResponse struct {
	Items []UserCardResponse `json:"items"`
}

type LikeReceivedItem struct {
	User    UserCardResponse `json:"user"`
	LikedAt time.Time        `json:"liked_at"`
}

type LikesReceivedResponse struct {
	Items []LikeReceivedItem `json:"items"`
}
