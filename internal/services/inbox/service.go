package inbox

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ivankudzin/tgapp/matchengine/internal/domain/apperr"
	"github.com/ivankudzin/tgapp/matchengine/internal/domain/enums"
	"github.com/ivankudzin/tgapp/matchengine/internal/domain/model"
)

type SwipeReader interface {
	ListByActor(ctx context.Context, actorUserID int64) ([]model.Swipe, error)
	ListIncoming(ctx context.Context, targetUserID int64) ([]model.Swipe, error)
}

type MatchReader interface {
	ListForUser(ctx context.Context, userID int64) ([]model.Match, error)
}

type MessageReader interface {
	LastByMatches(ctx context.Context, matchIDs []uuid.UUID) (map[uuid.UUID]model.Message, error)
}

type Directory interface {
	Resolve(ctx context.Context, userIDs ...int64) (map[int64]model.UserSummary, error)
	Candidates(ctx context.Context, userID int64, exclude []int64, limit int) ([]model.UserSummary, error)
}

type MatchPreview struct {
	Match          model.Match       `json:"match"`
	OtherUser      model.UserSummary `json:"other_user"`
	LastMessage    *model.Message    `json:"last_message,omitempty"`
	LastActivityAt time.Time         `json:"last_activity_at"`
}

type LikeReceived struct {
	User    model.UserSummary `json:"user"`
	LikedAt time.Time         `json:"liked_at"`
}

type Config struct {
	DiscoverLimit    int
	MaxDiscoverLimit int
}

type Dependencies struct {
	Swipes    SwipeReader
	Matches   MatchReader
	Messages  MessageReader
	Directory Directory
}

// Service composes the read side. None of its methods write.
type Service struct {
	swipes    SwipeReader
	matches   MatchReader
	messages  MessageReader
	directory Directory
	cfg       Config
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.DiscoverLimit <= 0 {
		cfg.DiscoverLimit = 20
	}
	if cfg.MaxDiscoverLimit < cfg.DiscoverLimit {
		cfg.MaxDiscoverLimit = max(cfg.DiscoverLimit, 100)
	}
	return &Service{
		swipes:    deps.Swipes,
		matches:   deps.Matches,
		messages:  deps.Messages,
		directory: deps.Directory,
		cfg:       cfg,
	}
}

// DiscoverQueue lists users the caller has not swiped yet, leaving out anyone who already passed on the caller.
func (s *Service) DiscoverQueue(ctx context.Context, userID int64, limit int) ([]model.UserSummary, error) {
	if userID <= 0 {
		return nil, apperr.Validation("user id must be positive")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.cfg.DiscoverLimit
	}
	if limit > s.cfg.MaxDiscoverLimit {
		limit = s.cfg.MaxDiscoverLimit
	}

	outgoing, err := s.swipes.ListByActor(ctx, userID)
	if err != nil {
		return nil, err
	}
	incoming, err := s.swipes.ListIncoming(ctx, userID)
	if err != nil {
		return nil, err
	}

	exclude := make([]int64, 0, len(outgoing)+len(incoming))
	for _, sw := range outgoing {
		exclude = append(exclude, sw.TargetUserID)
	}
	for _, sw := range incoming {
		if sw.Action == enums.SwipeActionPass {
			exclude = append(exclude, sw.ActorUserID)
		}
	}

	return s.directory.Candidates(ctx, userID, exclude, limit)
}

// MatchesWithPreview lists active matches with the counterpart and the newest message, most recent activity first.
func (s *Service) MatchesWithPreview(ctx context.Context, userID int64) ([]MatchPreview, error) {
	if userID <= 0 {
		return nil, apperr.Validation("user id must be positive")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}

	all, err := s.matches.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	active := make([]model.Match, 0, len(all))
	ids := make([]uuid.UUID, 0, len(all))
	others := make([]int64, 0, len(all))
	for _, m := range all {
		if !m.Active || !m.HasParticipant(userID) {
			continue
		}
		active = append(active, m)
		ids = append(ids, m.ID)
		others = append(others, m.Other(userID))
	}
	if len(active) == 0 {
		return []MatchPreview{}, nil
	}

	lasts, err := s.messages.LastByMatches(ctx, ids)
	if err != nil {
		return nil, err
	}
	users, err := s.directory.Resolve(ctx, others...)
	if err != nil {
		return nil, err
	}

	items := make([]MatchPreview, 0, len(active))
	for _, m := range active {
		otherID := m.Other(userID)
		other, ok := users[otherID]
		if !ok {
			other = model.UserSummary{ID: otherID}
		}
		item := MatchPreview{
			Match:          m,
			OtherUser:      other,
			LastActivityAt: m.CreatedAt,
		}
		if last, ok := lasts[m.ID]; ok {
			last := last
			item.LastMessage = &last
			item.LastActivityAt = last.SentAt
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].LastActivityAt.Equal(items[j].LastActivityAt) {
			return items[i].LastActivityAt.After(items[j].LastActivityAt)
		}
		return items[i].Match.ID.String() < items[j].Match.ID.String()
	})
	return items, nil
}

// LikesReceived lists users whose current intent toward userID is a like, skipping anyone userID passed on
// and any pair that already has a match row, active or not. Newest like first.
// Inactive rows count because an unmatched pair never matches again (see swipes.RecordSwipe).
func (s *Service) LikesReceived(ctx context.Context, userID int64) ([]LikeReceived, error) {
	if userID <= 0 {
		return nil, apperr.Validation("user id must be positive")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}

	incoming, err := s.swipes.ListIncoming(ctx, userID)
	if err != nil {
		return nil, err
	}
	outgoing, err := s.swipes.ListByActor(ctx, userID)
	if err != nil {
		return nil, err
	}
	matched, err := s.matches.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	skip := make(map[int64]struct{}, len(outgoing)+len(matched))
	for _, sw := range outgoing {
		if sw.Action == enums.SwipeActionPass {
			skip[sw.TargetUserID] = struct{}{}
		}
	}
	for _, m := range matched {
		skip[m.Other(userID)] = struct{}{}
	}

	likes := make([]model.Swipe, 0, len(incoming))
	actorIDs := make([]int64, 0, len(incoming))
	for _, sw := range incoming {
		if !sw.Action.IsLike() {
			continue
		}
		if _, ok := skip[sw.ActorUserID]; ok {
			continue
		}
		likes = append(likes, sw)
		actorIDs = append(actorIDs, sw.ActorUserID)
	}
	if len(likes) == 0 {
		return []LikeReceived{}, nil
	}

	users, err := s.directory.Resolve(ctx, actorIDs...)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(likes, func(i, j int) bool {
		if !likes[i].UpdatedAt.Equal(likes[j].UpdatedAt) {
			return likes[i].UpdatedAt.After(likes[j].UpdatedAt)
		}
		return likes[i].ActorUserID < likes[j].ActorUserID
	})

	items := make([]LikeReceived, 0, len(likes))
	for _, sw := range likes {
		u, ok := users[sw.ActorUserID]
		if !ok {
			// the directory no longer knows this user
			continue
		}
		items = append(items, LikeReceived{User: u, LikedAt: sw.UpdatedAt})
	}
	return items, nil
}

func (s *Service) ready() error {
	if s.swipes == nil || s.matches == nil || s.messages == nil || s.directory == nil {
		return fmt.Errorf("inbox dependencies are not configured")
	}
	return nil
}
