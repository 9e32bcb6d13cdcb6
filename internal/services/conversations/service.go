package conversations

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ivankudzin/tgapp/matchengine/internal/domain/apperr"
	"github.com/ivankudzin/tgapp/matchengine/internal/domain/model"
	"github.com/ivankudzin/tgapp/matchengine/internal/domain/rules"
)

type MatchStore interface {
	GetByID(ctx context.Context, tx pgx.Tx, matchID uuid.UUID) (model.Match, bool, error)
	LockByID(ctx context.Context, tx pgx.Tx, matchID uuid.UUID) (model.Match, bool, error)
	NextMessageSeq(ctx context.Context, tx pgx.Tx, matchID uuid.UUID) (int64, error)
}

type MessageStore interface {
	Insert(ctx context.Context, tx pgx.Tx, msg model.Message) error
	ListByMatch(ctx context.Context, matchID uuid.UUID, afterSeq int64, limit int) ([]model.Message, error)
	ListLatest(ctx context.Context, matchID uuid.UUID, beforeSeq int64, limit int) ([]model.Message, error)
}

type Notifier interface {
	MessagePosted(ctx context.Context, tx pgx.Tx, m model.Match, msg model.Message, sender model.UserSummary) (bool, error)
}

type Directory interface {
	Resolve(ctx context.Context, userIDs ...int64) (map[int64]model.UserSummary, error)
}

type Transactor interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

// FloodGuard rejects a sender posting faster than allowed.
type FloodGuard interface {
	Allow(userID int64) error
}

type Config struct {
	MaxContentRunes int
	DefaultLimit    int
	MaxLimit        int
}

type Dependencies struct {
	Tx         Transactor
	Matches    MatchStore
	Messages   MessageStore
	Notifier   Notifier
	Directory  Directory
	FloodGuard FloodGuard
}

type Service struct {
	tx         Transactor
	matches    MatchStore
	messages   MessageStore
	notifier   Notifier
	directory  Directory
	floodGuard FloodGuard
	cfg        Config
	now        func() time.Time
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.MaxContentRunes <= 0 {
		cfg.MaxContentRunes = rules.DefaultMaxMessageRunes
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 100
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		cfg.MaxLimit = max(cfg.DefaultLimit, 500)
	}
	return &Service{
		tx:         deps.Tx,
		matches:    deps.Matches,
		messages:   deps.Messages,
		notifier:   deps.Notifier,
		directory:  deps.Directory,
		floodGuard: deps.FloodGuard,
		cfg:        cfg,
		now:        time.Now,
	}
}

// PostMessage appends content to the match thread and notifies the other participant in the same transaction.
func (s *Service) PostMessage(ctx context.Context, senderID int64, matchID uuid.UUID, content string) (model.Message, error) {
	if senderID <= 0 {
		return model.Message{}, apperr.Validation("sender id must be positive")
	}
	if matchID == uuid.Nil {
		return model.Message{}, apperr.Validation("match id is required")
	}
	content = rules.NormalizeContent(content)
	if content == "" {
		return model.Message{}, apperr.Validation("message content is empty")
	}
	if utf8.RuneCountInString(content) > s.cfg.MaxContentRunes {
		return model.Message{}, apperr.Validation("message content exceeds %d characters", s.cfg.MaxContentRunes)
	}
	if s.tx == nil || s.matches == nil || s.messages == nil || s.notifier == nil {
		return model.Message{}, fmt.Errorf("conversation dependencies are not configured")
	}
	sender := model.UserSummary{ID: senderID}
	if s.directory != nil {
		users, err := s.directory.Resolve(ctx, senderID)
		if err != nil {
			return model.Message{}, err
		}
		if u, ok := users[senderID]; ok {
			sender = u
		}
	}

	var out model.Message
	err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		m, ok, err := s.matches.LockByID(txCtx, tx, matchID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("match %s", matchID)
		}
		if !m.HasParticipant(senderID) {
			return apperr.NotAuthorized("user %d is not part of match %s", senderID, matchID)
		}
		if !m.Active {
			return fmt.Errorf("%w: %s", apperr.ErrInactiveMatch, matchID)
		}
		if s.floodGuard != nil {
			if err := s.floodGuard.Allow(senderID); err != nil {
				return err
			}
		}

		seq, err := s.matches.NextMessageSeq(txCtx, tx, matchID)
		if err != nil {
			return err
		}
		msg := model.Message{
			ID:       uuid.New(),
			MatchID:  matchID,
			SenderID: senderID,
			Seq:      seq,
			Content:  content,
			SentAt:   s.now().UTC(),
		}
		if err := s.messages.Insert(txCtx, tx, msg); err != nil {
			return err
		}
		if _, err := s.notifier.MessagePosted(txCtx, tx, m, msg, sender); err != nil {
			return err
		}
		out = msg
		return nil
	})
	if err != nil {
		return model.Message{}, err
	}
	return out, nil
}

// Page is one window of a thread in ascending seq order.
// HasMore reports messages beyond the window in the direction it was read:
// newer ones for ListMessages with a cursor, older ones otherwise.
type Page struct {
	Messages     []model.Message
	HasMore      bool
	NextAfterSeq int64
}

// ListMessages returns messages after afterSeq in ascending seq order.
// A zero afterSeq returns the newest window of the thread. Unmatched threads stay readable.
func (s *Service) ListMessages(ctx context.Context, requesterID int64, matchID uuid.UUID, afterSeq int64, limit int) (Page, error) {
	if afterSeq < 0 {
		return Page{}, apperr.Validation("after_seq must not be negative")
	}
	limit, err := s.authorizeRead(ctx, requesterID, matchID, limit)
	if err != nil {
		return Page{}, err
	}

	var items []model.Message
	if afterSeq == 0 {
		items, err = s.messages.ListLatest(ctx, matchID, 0, limit+1)
		if err != nil {
			return Page{}, err
		}
		return tailPage(items, limit), nil
	}

	items, err = s.messages.ListByMatch(ctx, matchID, afterSeq, limit+1)
	if err != nil {
		return Page{}, err
	}
	page := Page{Messages: items, NextAfterSeq: afterSeq}
	if len(items) > limit {
		page.Messages = items[:limit]
		page.HasMore = true
	}
	if n := len(page.Messages); n > 0 {
		page.NextAfterSeq = page.Messages[n-1].Seq
	}
	return page, nil
}

// ListHistory returns the newest messages with seq below beforeSeq, for scrolling back from a window.
func (s *Service) ListHistory(ctx context.Context, requesterID int64, matchID uuid.UUID, beforeSeq int64, limit int) (Page, error) {
	if beforeSeq <= 0 {
		return Page{}, apperr.Validation("before_seq must be positive")
	}
	limit, err := s.authorizeRead(ctx, requesterID, matchID, limit)
	if err != nil {
		return Page{}, err
	}

	items, err := s.messages.ListLatest(ctx, matchID, beforeSeq, limit+1)
	if err != nil {
		return Page{}, err
	}
	return tailPage(items, limit), nil
}

func tailPage(items []model.Message, limit int) Page {
	page := Page{Messages: items}
	if len(items) > limit {
		page.Messages = items[len(items)-limit:]
		page.HasMore = true
	}
	if n := len(page.Messages); n > 0 {
		page.NextAfterSeq = page.Messages[n-1].Seq
	}
	return page
}

func (s *Service) authorizeRead(ctx context.Context, requesterID int64, matchID uuid.UUID, limit int) (int, error) {
	if requesterID <= 0 {
		return 0, apperr.Validation("requester id must be positive")
	}
	if matchID == uuid.Nil {
		return 0, apperr.Validation("match id is required")
	}
	if s.matches == nil || s.messages == nil {
		return 0, fmt.Errorf("conversation dependencies are not configured")
	}
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}

	m, ok, err := s.matches.GetByID(ctx, nil, matchID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, apperr.NotFound("match %s", matchID)
	}
	if !m.HasParticipant(requesterID) {
		return 0, apperr.NotAuthorized("user %d is not part of match %s", requesterID, matchID)
	}
	return limit, nil
}
