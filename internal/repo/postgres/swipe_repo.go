package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/tgapp/matchengine/internal/domain/enums"
	"github.com/ivankudzin/tgapp/matchengine/internal/domain/model"
	"github.com/ivankudzin/tgapp/matchengine/internal/domain/rules"
)

type SwipeRepo struct {
	pool *pgxpool.Pool
}

func NewSwipeRepo(pool *pgxpool.Pool) *SwipeRepo {
	return &SwipeRepo{pool: pool}
}

// LockPair serializes every write touching the unordered pair until the transaction ends.
func (r *SwipeRepo) LockPair(ctx context.Context, tx pgx.Tx, userID, otherID int64) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if _, err := tx.Exec(ctx, `
SELECT pg_advisory_xact_lock(hashtextextended($1, 0))
`, rules.PairKey(userID, otherID)); err != nil {
		return fmt.Errorf("lock pair: %w", err)
	}
	return nil
}

func (r *SwipeRepo) Upsert(ctx context.Context, tx pgx.Tx, actorUserID, targetUserID int64, action enums.SwipeAction, now time.Time) (model.Swipe, error) {
	if actorUserID <= 0 || targetUserID <= 0 || action == "" {
		return model.Swipe{}, fmt.Errorf("invalid swipe payload")
	}
	if tx == nil {
		return model.Swipe{}, fmt.Errorf("transaction is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var rec model.Swipe
	err := tx.QueryRow(ctx, `
INSERT INTO swipes (
	actor_user_id,
	target_user_id,
	action,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (actor_user_id, target_user_id) DO UPDATE SET
	action = EXCLUDED.action,
	updated_at = EXCLUDED.updated_at
RETURNING actor_user_id, target_user_id, action, created_at, updated_at
`, actorUserID, targetUserID, string(action), now.UTC()).Scan(
		&rec.ActorUserID,
		&rec.TargetUserID,
		&rec.Action,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return model.Swipe{}, fmt.Errorf("upsert swipe: %w", mapPgError(err))
	}

	return rec, nil
}

func (r *SwipeRepo) Get(ctx context.Context, tx pgx.Tx, actorUserID, targetUserID int64) (model.Swipe, bool, error) {
	q, err := pick(r.pool, tx)
	if err != nil {
		return model.Swipe{}, false, err
	}

	var rec model.Swipe
	err = q.QueryRow(ctx, `
SELECT actor_user_id, target_user_id, action, created_at, updated_at
FROM swipes
WHERE actor_user_id = $1 AND target_user_id = $2
`, actorUserID, targetUserID).Scan(
		&rec.ActorUserID,
		&rec.TargetUserID,
		&rec.Action,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Swipe{}, false, nil
		}
		return model.Swipe{}, false, fmt.Errorf("get swipe: %w", err)
	}

	return rec, true, nil
}

// ListByActor returns every live intent the actor has issued.
func (r *SwipeRepo) ListByActor(ctx context.Context, actorUserID int64) ([]model.Swipe, error) {
	if actorUserID <= 0 {
		return nil, fmt.Errorf("invalid actor user id")
	}
	return r.list(ctx, `
SELECT actor_user_id, target_user_id, action, created_at, updated_at
FROM swipes
WHERE actor_user_id = $1
ORDER BY updated_at DESC, target_user_id
`, actorUserID)
}

// ListIncoming returns every live intent aimed at the target, newest first.
func (r *SwipeRepo) ListIncoming(ctx context.Context, targetUserID int64) ([]model.Swipe, error) {
	if targetUserID <= 0 {
		return nil, fmt.Errorf("invalid target user id")
	}
	return r.list(ctx, `
SELECT actor_user_id, target_user_id, action, created_at, updated_at
FROM swipes
WHERE target_user_id = $1
ORDER BY updated_at DESC, actor_user_id
`, targetUserID)
}

func (r *SwipeRepo) list(ctx context.Context, query string, userID int64) ([]model.Swipe, error) {
	q, err := pick(r.pool, nil)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list swipes: %w", err)
	}
	defer rows.Close()

	items := make([]model.Swipe, 0)
	for rows.Next() {
		var rec model.Swipe
		if err := rows.Scan(
			&rec.ActorUserID,
			&rec.TargetUserID,
			&rec.Action,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan swipe: %w", err)
		}
		items = append(items, rec)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate swipes: %w", rows.Err())
	}

	return items, nil
}
