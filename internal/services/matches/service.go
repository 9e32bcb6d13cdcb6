package matches

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/matchengine/internal/domain/apperr"
	"github.com/ivankudzin/tgapp/matchengine/internal/domain/model"
)

type MatchStore interface {
	LockByID(ctx context.Context, tx pgx.Tx, matchID uuid.UUID) (model.Match, bool, error)
	Deactivate(ctx context.Context, tx pgx.Tx, matchID uuid.UUID, now time.Time) (bool, error)
}

type Transactor interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

type Dependencies struct {
	Tx         Transactor
	MatchStore MatchStore
	Logger     *zap.Logger
}

type Service struct {
	tx         Transactor
	matchStore MatchStore
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		tx:         deps.Tx,
		matchStore: deps.MatchStore,
		logger:     logger,
		now:        time.Now,
	}
}

// Unmatch soft deletes the match for one of its participants. It reports whether this call changed
// anything; unmatching an already inactive match succeeds with false.
func (s *Service) Unmatch(ctx context.Context, userID int64, matchID uuid.UUID) (bool, error) {
	if userID <= 0 || matchID == uuid.Nil {
		return false, apperr.Validation("user id and match id are required")
	}
	if s.tx == nil || s.matchStore == nil {
		return false, fmt.Errorf("unmatch dependencies are not configured")
	}

	var changed bool
	if err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		m, ok, err := s.matchStore.LockByID(txCtx, tx, matchID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("match %s", matchID)
		}
		if !m.HasParticipant(userID) {
			return apperr.NotAuthorized("user %d is not part of match %s", userID, matchID)
		}
		if !m.Active {
			return nil
		}

		changed, err = s.matchStore.Deactivate(txCtx, tx, matchID, s.now().UTC())
		return err
	}); err != nil {
		return false, err
	}

	if changed {
		s.logger.Info("match deactivated", zap.String("match_id", matchID.String()), zap.Int64("user_id", userID))
	}
	return changed, nil
}
