package dto

// SwipeRequest accepts the target as target_id or, for older clients, to_user_id.
type SwipeRequest struct {
	TargetID int64  `json:"target_id"`
	ToUserID int64  `json:"to_user_id,omitempty"`
	Action   string `json:"action"`
}

func (r SwipeRequest) Target() int64 {
	if r.TargetID > 0 {
		return r.TargetID
	}
	return r.ToUserID
}

type SwipeResponse struct {
	OK           bool    `json:"ok"`
	IsMatch      bool    `json:"is_match"`
	MatchCreated bool    `json:"match_created"`
	MatchID      *string `json:"match_id"`
}
