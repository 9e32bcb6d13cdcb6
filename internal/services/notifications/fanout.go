package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/matchengine/internal/domain/enums"
	"github.com/ivankudzin/tgapp/matchengine/internal/domain/model"
	"github.com/ivankudzin/tgapp/matchengine/internal/domain/rules"
)

// Fanout derives notification rows from swipe, match and message events. Every method runs inside the
// caller's transaction so the notification commits or rolls back with the event that caused it.
type Fanout struct {
	store        Store
	matches      PairLookup
	snippetRunes int
	logger       *zap.Logger
}

type FanoutDependencies struct {
	Store   Store
	Matches PairLookup
	Logger  *zap.Logger
}

func NewFanout(deps FanoutDependencies, snippetRunes int) *Fanout {
	if snippetRunes <= 0 {
		snippetRunes = rules.DefaultSnippetRunes
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fanout{
		store:        deps.Store,
		matches:      deps.Matches,
		snippetRunes: snippetRunes,
		logger:       logger,
	}
}

func MatchDedupeKey(m model.Match) string {
	return "match:" + m.ID.String()
}

func MessageDedupeKey(msg model.Message) string {
	return "message:" + msg.ID.String()
}

func LikeDedupeKey(likerID int64) string {
	return fmt.Sprintf("like:%d", likerID)
}

// MatchCreated notifies both participants. users should hold both summaries; a missing one only
// degrades the text.
func (f *Fanout) MatchCreated(ctx context.Context, tx pgx.Tx, m model.Match, users map[int64]model.UserSummary) (int, error) {
	created := 0
	for _, recipientID := range []int64{m.UserAID, m.UserBID} {
		other := users[m.Other(recipientID)]
		ok, err := f.store.Insert(ctx, tx, model.Notification{
			RecipientID: recipientID,
			Type:        enums.NotificationTypeMatch,
			Title:       "It's a match!",
			Body:        fmt.Sprintf("You and %s liked each other", displayName(other)),
			Data: map[string]any{
				"match_id":   m.ID.String(),
				"user_id":    m.Other(recipientID),
				"user_name":  other.DisplayName,
				"user_photo": firstPhoto(other),
			},
			DedupeKey: MatchDedupeKey(m),
			CreatedAt: m.CreatedAt,
		})
		if err != nil {
			return created, fmt.Errorf("notify match: %w", err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// MessagePosted notifies the participant who did not send msg.
func (f *Fanout) MessagePosted(ctx context.Context, tx pgx.Tx, m model.Match, msg model.Message, sender model.UserSummary) (bool, error) {
	recipientID := m.Other(msg.SenderID)
	if recipientID == 0 || recipientID == msg.SenderID {
		return false, nil
	}

	snippet := rules.Snippet(msg.Content, f.snippetRunes)
	ok, err := f.store.Insert(ctx, tx, model.Notification{
		RecipientID: recipientID,
		Type:        enums.NotificationTypeMessage,
		Title:       "New message from " + displayName(sender),
		Body:        snippet,
		Data: map[string]any{
			"match_id":    m.ID.String(),
			"message_id":  msg.ID.String(),
			"sender_id":   msg.SenderID,
			"sender_name": sender.DisplayName,
			"snippet":     snippet,
		},
		DedupeKey: MessageDedupeKey(msg),
		CreatedAt: msg.SentAt,
	})
	if err != nil {
		return false, fmt.Errorf("notify message: %w", err)
	}
	return ok, nil
}

// LikeReceived notifies the likee once per liker. Nothing is emitted when the pair already has a match
// row, since the match notification supersedes it.
func (f *Fanout) LikeReceived(ctx context.Context, tx pgx.Tx, like model.Swipe, liker model.UserSummary) (bool, error) {
	if !like.Action.IsLike() {
		return false, nil
	}
	if _, exists, err := f.matches.GetByPair(ctx, tx, like.ActorUserID, like.TargetUserID); err != nil {
		return false, fmt.Errorf("check match before like notification: %w", err)
	} else if exists {
		f.logger.Debug("like notification suppressed by match",
			zap.Int64("liker_id", like.ActorUserID),
			zap.Int64("likee_id", like.TargetUserID),
		)
		return false, nil
	}

	ok, err := f.store.Insert(ctx, tx, model.Notification{
		RecipientID: like.TargetUserID,
		Type:        enums.NotificationTypeLike,
		Title:       "Someone likes you",
		Body:        displayName(liker) + " liked your profile",
		Data: map[string]any{
			"user_id":    like.ActorUserID,
			"user_name":  liker.DisplayName,
			"user_photo": firstPhoto(liker),
		},
		DedupeKey: LikeDedupeKey(like.ActorUserID),
		CreatedAt: like.UpdatedAt,
	})
	if err != nil {
		return false, fmt.Errorf("notify like: %w", err)
	}
	return ok, nil
}

func displayName(u model.UserSummary) string {
	if name := strings.TrimSpace(u.DisplayName); name != "" {
		return name
	}
	return "Someone"
}

func firstPhoto(u model.UserSummary) string {
	if len(u.Photos) == 0 {
		return ""
	}
	return u.Photos[0]
}
