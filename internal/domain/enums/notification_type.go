package enums

type NotificationType string

const (
	NotificationTypeMatch   NotificationType = "match"
	NotificationTypeMessage NotificationType = "message"
	NotificationTypeLike    NotificationType = "like"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTypeMatch, NotificationTypeMessage, NotificationTypeLike:
		return true
	default:
		return false
	}
}
