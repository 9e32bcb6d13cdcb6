package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ivankudzin/tgapp/matchengine/internal/domain/apperr"
	"github.com/ivankudzin/tgapp/matchengine/internal/domain/model"
)

type Store interface {
	Insert(ctx context.Context, tx pgx.Tx, n model.Notification) (bool, error)
	Get(ctx context.Context, tx pgx.Tx, notificationID uuid.UUID) (model.Notification, bool, error)
	ListForRecipient(ctx context.Context, recipientID int64, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, tx pgx.Tx, notificationID uuid.UUID, now time.Time) error
	MarkAllRead(ctx context.Context, recipientID int64, now time.Time) (int64, error)
	CountUnread(ctx context.Context, recipientID int64) (int, error)
}

type PairLookup interface {
	GetByPair(ctx context.Context, tx pgx.Tx, userID, otherID int64) (model.Match, bool, error)
}

type Transactor interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

type Config struct {
	DefaultLimit int
	MaxLimit     int
}

type Dependencies struct {
	Tx    Transactor
	Store Store
}

type Service struct {
	tx    Transactor
	store Store
	cfg   Config
	now   func() time.Time
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 50
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		cfg.MaxLimit = max(cfg.DefaultLimit, 200)
	}
	return &Service{
		tx:    deps.Tx,
		store: deps.Store,
		cfg:   cfg,
		now:   time.Now,
	}
}

// List returns the requester's notifications, newest first.
func (s *Service) List(ctx context.Context, requesterID int64, limit int) ([]model.Notification, error) {
	if requesterID <= 0 {
		return nil, apperr.Validation("requester id must be positive")
	}
	if s.store == nil {
		return nil, fmt.Errorf("notification dependencies are not configured")
	}
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}
	return s.store.ListForRecipient(ctx, requesterID, limit)
}

// MarkRead flips one notification to read. Marking an already read notification succeeds unchanged.
func (s *Service) MarkRead(ctx context.Context, notificationID uuid.UUID, requesterID int64) (model.Notification, error) {
	if requesterID <= 0 || notificationID == uuid.Nil {
		return model.Notification{}, apperr.Validation("notification id and requester id are required")
	}
	if s.tx == nil || s.store == nil {
		return model.Notification{}, fmt.Errorf("notification dependencies are not configured")
	}

	var out model.Notification
	err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		n, ok, err := s.store.Get(txCtx, tx, notificationID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("notification %s", notificationID)
		}
		if n.RecipientID != requesterID {
			return apperr.NotAuthorized("notification %s belongs to another user", notificationID)
		}
		if n.Read {
			out = n
			return nil
		}

		now := s.now().UTC()
		if err := s.store.MarkRead(txCtx, tx, notificationID, now); err != nil {
			return err
		}
		n.Read = true
		n.ReadAt = &now
		out = n
		return nil
	})
	if err != nil {
		return model.Notification{}, err
	}
	return out, nil
}

// MarkAllRead flips every notification the requester had unread when the call started and reports how many.
func (s *Service) MarkAllRead(ctx context.Context, requesterID int64) (int64, error) {
	if requesterID <= 0 {
		return 0, apperr.Validation("requester id must be positive")
	}
	if s.store == nil {
		return 0, fmt.Errorf("notification dependencies are not configured")
	}
	return s.store.MarkAllRead(ctx, requesterID, s.now().UTC())
}

func (s *Service) UnreadCount(ctx context.Context, requesterID int64) (int, error) {
	if requesterID <= 0 {
		return 0, apperr.Validation("requester id must be positive")
	}
	if s.store == nil {
		return 0, fmt.Errorf("notification dependencies are not configured")
	}
	return s.store.CountUnread(ctx, requesterID)
}
