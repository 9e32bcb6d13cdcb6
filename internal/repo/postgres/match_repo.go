package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/tgapp/matchengine/internal/domain/model"
	"github.com/ivankudzin/tgapp/matchengine/internal/domain/rules"
)

const matchColumns = `id, user_a_id, user_b_id, created_at, active, deactivated_at, last_message_seq`

type MatchRepo struct {
	pool *pgxpool.Pool
}

func NewMatchRepo(pool *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{pool: pool}
}

// CreateIfAbsent inserts the match unless the pair already has one. created is false when the
// pair key was taken, in which case the returned match is empty.
func (r *MatchRepo) CreateIfAbsent(ctx context.Context, tx pgx.Tx, m model.Match) (model.Match, bool, error) {
	if m.UserAID <= 0 || m.UserBID <= 0 || m.UserAID == m.UserBID {
		return model.Match{}, false, fmt.Errorf("invalid match payload")
	}
	if tx == nil {
		return model.Match{}, false, fmt.Errorf("transaction is required")
	}
	m.UserAID, m.UserBID = rules.CanonicalPair(m.UserAID, m.UserBID)
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	created, err := scanMatch(tx.QueryRow(ctx, `
INSERT INTO matches (
	id,
	user_a_id,
	user_b_id,
	created_at,
	active,
	last_message_seq
) VALUES ($1, $2, $3, $4, TRUE, 0)
ON CONFLICT (user_a_id, user_b_id) DO NOTHING
RETURNING `+matchColumns, m.ID, m.UserAID, m.UserBID, m.CreatedAt.UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Match{}, false, nil
		}
		return model.Match{}, false, fmt.Errorf("create match: %w", mapPgError(err))
	}

	return created, true, nil
}

func (r *MatchRepo) GetByPair(ctx context.Context, tx pgx.Tx, userID, otherID int64) (model.Match, bool, error) {
	q, err := pick(r.pool, tx)
	if err != nil {
		return model.Match{}, false, err
	}
	lo, hi := rules.CanonicalPair(userID, otherID)

	m, err := scanMatch(q.QueryRow(ctx, `
SELECT `+matchColumns+`
FROM matches
WHERE user_a_id = $1 AND user_b_id = $2
`, lo, hi))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Match{}, false, nil
		}
		return model.Match{}, false, fmt.Errorf("get match by pair: %w", err)
	}
	return m, true, nil
}

func (r *MatchRepo) GetByID(ctx context.Context, tx pgx.Tx, matchID uuid.UUID) (model.Match, bool, error) {
	q, err := pick(r.pool, tx)
	if err != nil {
		return model.Match{}, false, err
	}

	m, err := scanMatch(q.QueryRow(ctx, `
SELECT `+matchColumns+`
FROM matches
WHERE id = $1
`, matchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Match{}, false, nil
		}
		return model.Match{}, false, fmt.Errorf("get match: %w", err)
	}
	return m, true, nil
}

// LockByID reads the match and holds its row lock until the transaction ends.
func (r *MatchRepo) LockByID(ctx context.Context, tx pgx.Tx, matchID uuid.UUID) (model.Match, bool, error) {
	if tx == nil {
		return model.Match{}, false, fmt.Errorf("transaction is required")
	}

	m, err := scanMatch(tx.QueryRow(ctx, `
SELECT `+matchColumns+`
FROM matches
WHERE id = $1
FOR UPDATE
`, matchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Match{}, false, nil
		}
		return model.Match{}, false, fmt.Errorf("lock match: %w", err)
	}
	return m, true, nil
}

func (r *MatchRepo) NextMessageSeq(ctx context.Context, tx pgx.Tx, matchID uuid.UUID) (int64, error) {
	if tx == nil {
		return 0, fmt.Errorf("transaction is required")
	}

	var seq int64
	err := tx.QueryRow(ctx, `
UPDATE matches
SET last_message_seq = last_message_seq + 1
WHERE id = $1
RETURNING last_message_seq
`, matchID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("bump message seq: %w", err)
	}
	return seq, nil
}

// ListForUser returns every match row the user takes part in, active or not.
func (r *MatchRepo) ListForUser(ctx context.Context, userID int64) ([]model.Match, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	q, err := pick(r.pool, nil)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
SELECT `+matchColumns+`
FROM matches
WHERE user_a_id = $1 OR user_b_id = $1
ORDER BY created_at DESC, id DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	items := make([]model.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		items = append(items, m)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate matches: %w", rows.Err())
	}

	return items, nil
}

// Deactivate soft deletes the match. changed is false when it was already inactive.
func (r *MatchRepo) Deactivate(ctx context.Context, tx pgx.Tx, matchID uuid.UUID, now time.Time) (bool, error) {
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	result, err := tx.Exec(ctx, `
UPDATE matches
SET active = FALSE, deactivated_at = $2
WHERE id = $1 AND active
`, matchID, now.UTC())
	if err != nil {
		return false, fmt.Errorf("deactivate match: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func scanMatch(row pgx.Row) (model.Match, error) {
	var m model.Match
	err := row.Scan(
		&m.ID,
		&m.UserAID,
		&m.UserBID,
		&m.CreatedAt,
		&m.Active,
		&m.DeactivatedAt,
		&m.LastMessageSeq,
	)
	return m, err
}
