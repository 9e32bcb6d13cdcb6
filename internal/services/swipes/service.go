package swipes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/matchengine/internal/domain/apperr"
	"github.com/ivankudzin/tgapp/matchengine/internal/domain/enums"
	"github.com/ivankudzin/tgapp/matchengine/internal/domain/model"
	"github.com/ivankudzin/tgapp/matchengine/internal/domain/rules"
	ratesvc "github.com/ivankudzin/tgapp/matchengine/internal/services/rate"
)

const maxAttempts = 2

type SwipeStore interface {
	LockPair(ctx context.Context, tx pgx.Tx, userID, otherID int64) error
	Upsert(ctx context.Context, tx pgx.Tx, actorUserID, targetUserID int64, action enums.SwipeAction, now time.Time) (model.Swipe, error)
	Get(ctx context.Context, tx pgx.Tx, actorUserID, targetUserID int64) (model.Swipe, bool, error)
}

type MatchStore interface {
	GetByPair(ctx context.Context, tx pgx.Tx, userID, otherID int64) (model.Match, bool, error)
	CreateIfAbsent(ctx context.Context, tx pgx.Tx, m model.Match) (model.Match, bool, error)
}

type Notifier interface {
	MatchCreated(ctx context.Context, tx pgx.Tx, m model.Match, users map[int64]model.UserSummary) (int, error)
	LikeReceived(ctx context.Context, tx pgx.Tx, like model.Swipe, liker model.UserSummary) (bool, error)
}

type Directory interface {
	Require(ctx context.Context, userIDs ...int64) (map[int64]model.UserSummary, error)
}

type Transactor interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

type RateLimiter interface {
	AllowLike(ctx context.Context, userID int64) error
}

type Result struct {
	Matched      bool
	MatchID      *uuid.UUID
	MatchCreated bool
}

type Dependencies struct {
	Tx          Transactor
	SwipeStore  SwipeStore
	MatchStore  MatchStore
	Notifier    Notifier
	Directory   Directory
	RateLimiter RateLimiter
	Logger      *zap.Logger
}

type Service struct {
	tx          Transactor
	swipeStore  SwipeStore
	matchStore  MatchStore
	notifier    Notifier
	directory   Directory
	rateLimiter RateLimiter
	logger      *zap.Logger
	now         func() time.Time
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		tx:          deps.Tx,
		swipeStore:  deps.SwipeStore,
		matchStore:  deps.MatchStore,
		notifier:    deps.Notifier,
		directory:   deps.Directory,
		rateLimiter: deps.RateLimiter,
		logger:      logger,
		now:         time.Now,
	}
}

// RecordSwipe stores the actor's latest intent toward target and, for a like answering a like,
// creates the pair's match. Only the call that inserts the match row notifies the participants.
func (s *Service) RecordSwipe(ctx context.Context, actorID, targetID int64, action enums.SwipeAction) (Result, error) {
	if actorID <= 0 || targetID <= 0 {
		return Result{}, apperr.Validation("user ids must be positive")
	}
	if actorID == targetID {
		return Result{}, apperr.Validation("cannot swipe on yourself")
	}
	normalized, ok := enums.ParseSwipeAction(string(action))
	if !ok {
		return Result{}, apperr.Validation("unsupported action %q", action)
	}
	if s.tx == nil || s.swipeStore == nil || s.matchStore == nil || s.notifier == nil || s.directory == nil {
		return Result{}, fmt.Errorf("swipe dependencies are not configured")
	}

	users, err := s.directory.Require(ctx, actorID, targetID)
	if err != nil {
		return Result{}, err
	}

	if normalized.IsLike() && s.rateLimiter != nil {
		if err := s.rateLimiter.AllowLike(ctx, actorID); err != nil {
			if _, tooFast := ratesvc.IsTooFast(err); tooFast {
				return Result{}, err
			}
			s.logger.Warn("like limiter unavailable, allowing like", zap.Int64("actor_id", actorID), zap.Error(err))
		}
	}

	var result Result
	for attempt := 1; ; attempt++ {
		result, err = s.apply(ctx, actorID, targetID, normalized, users)
		if err == nil || !errors.Is(err, apperr.ErrConflict) || attempt == maxAttempts {
			break
		}
		s.logger.Warn("swipe hit a uniqueness conflict, retrying",
			zap.Int64("actor_id", actorID),
			zap.Int64("target_id", targetID),
			zap.Error(err),
		)
	}
	if err != nil {
		return Result{}, err
	}

	if result.MatchCreated {
		s.logger.Info("match created",
			zap.String("match_id", result.MatchID.String()),
			zap.Int64("actor_id", actorID),
			zap.Int64("target_id", targetID),
		)
	}
	return result, nil
}

// apply runs one swipe transaction. A retry after a conflict re-applies the upsert and reads the committed match.
func (s *Service) apply(ctx context.Context, actorID, targetID int64, normalized enums.SwipeAction, users map[int64]model.UserSummary) (Result, error) {
	var result Result
	err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		result = Result{}
		if err := s.swipeStore.LockPair(txCtx, tx, actorID, targetID); err != nil {
			return err
		}

		swipe, err := s.swipeStore.Upsert(txCtx, tx, actorID, targetID, normalized, s.now().UTC())
		if err != nil {
			return err
		}
		if !normalized.IsLike() {
			return nil
		}

		existing, found, err := s.matchStore.GetByPair(txCtx, tx, actorID, targetID)
		if err != nil {
			return err
		}
		if found {
			// An unmatched pair keeps its row, so a fresh mutual like does not bring it back.
			if existing.Active {
				result = matchedResult(existing, false)
			}
			return nil
		}

		reciprocal, found, err := s.swipeStore.Get(txCtx, tx, targetID, actorID)
		if err != nil {
			return err
		}
		if !found || !reciprocal.Action.IsLike() {
			_, err := s.notifier.LikeReceived(txCtx, tx, swipe, users[actorID])
			return err
		}

		lo, hi := rules.CanonicalPair(actorID, targetID)
		created, inserted, err := s.matchStore.CreateIfAbsent(txCtx, tx, model.Match{
			ID:        uuid.New(),
			UserAID:   lo,
			UserBID:   hi,
			CreatedAt: swipe.UpdatedAt,
			Active:    true,
		})
		if err != nil {
			return err
		}
		if !inserted {
			current, found, err := s.matchStore.GetByPair(txCtx, tx, actorID, targetID)
			if err != nil {
				return err
			}
			if found && current.Active {
				result = matchedResult(current, false)
			}
			return nil
		}

		if _, err := s.notifier.MatchCreated(txCtx, tx, created, users); err != nil {
			return err
		}
		result = matchedResult(created, true)
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

func matchedResult(m model.Match, created bool) Result {
	id := m.ID
	return Result{Matched: true, MatchID: &id, MatchCreated: created}
}
