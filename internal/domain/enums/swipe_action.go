package enums

import "strings"

type SwipeAction string

const (
	SwipeActionLike SwipeAction = "like"
	SwipeActionPass SwipeAction = "pass"
)

// ParseSwipeAction accepts the client spellings seen in the wild ("LIKE", "Pass", "dislike")
// and reports false for anything else.
func ParseSwipeAction(raw string) (SwipeAction, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	value = strings.ReplaceAll(value, "_", "")
	switch value {
	case string(SwipeActionLike):
		return SwipeActionLike, true
	case string(SwipeActionPass), "dislike", "nope":
		return SwipeActionPass, true
	default:
		return "", false
	}
}

func (a SwipeAction) IsLike() bool {
	return a == SwipeActionLike
}
