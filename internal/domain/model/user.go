package model

// UserSummary is the directory's read-only view of a user. The engine references users by ID
// and only ever reads these fields to decorate responses and notification payloads.
type UserSummary struct {
	ID          int64    `json:"id"`
	DisplayName string   `json:"display_name"`
	Age         int      `json:"age"`
	Location    string   `json:"location"`
	Bio         string   `json:"bio,omitempty"`
	Photos      []string `json:"photos"`
	Verified    bool     `json:"verified"`
	Online      bool     `json:"online"`
}
