package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/tgapp/matchengine/internal/domain/model"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Insert(ctx context.Context, tx pgx.Tx, msg model.Message) error {
	if msg.ID == uuid.Nil || msg.MatchID == uuid.Nil || msg.SenderID <= 0 || msg.Seq <= 0 {
		return fmt.Errorf("invalid message payload")
	}
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO messages (
	id,
	match_id,
	sender_id,
	seq,
	content,
	sent_at
) VALUES ($1, $2, $3, $4, $5, $6)
`, msg.ID, msg.MatchID, msg.SenderID, msg.Seq, msg.Content, msg.SentAt.UTC()); err != nil {
		return fmt.Errorf("insert message: %w", mapPgError(err))
	}
	return nil
}

// ListByMatch returns messages with seq greater than afterSeq in ascending order.
func (r *MessageRepo) ListByMatch(ctx context.Context, matchID uuid.UUID, afterSeq int64, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	if afterSeq < 0 {
		afterSeq = 0
	}
	q, err := pick(r.pool, nil)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
SELECT id, match_id, sender_id, seq, content, sent_at
FROM messages
WHERE match_id = $1 AND seq > $2
ORDER BY seq ASC
LIMIT $3
`, matchID, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	items := make([]model.Message, 0, limit)
	for rows.Next() {
		var msg model.Message
		if err := rows.Scan(&msg.ID, &msg.MatchID, &msg.SenderID, &msg.Seq, &msg.Content, &msg.SentAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		items = append(items, msg)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate messages: %w", rows.Err())
	}

	return items, nil
}

// ListLatest returns the newest limit messages with seq below beforeSeq in ascending order.
// A zero beforeSeq reads from the end of the thread.
func (r *MessageRepo) ListLatest(ctx context.Context, matchID uuid.UUID, beforeSeq int64, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	q, err := pick(r.pool, nil)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
SELECT id, match_id, sender_id, seq, content, sent_at
FROM messages
WHERE match_id = $1 AND ($2::bigint = 0 OR seq < $2::bigint)
ORDER BY seq DESC
LIMIT $3
`, matchID, beforeSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("list latest messages: %w", err)
	}
	defer rows.Close()

	items := make([]model.Message, 0, limit)
	for rows.Next() {
		var msg model.Message
		if err := rows.Scan(&msg.ID, &msg.MatchID, &msg.SenderID, &msg.Seq, &msg.Content, &msg.SentAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		items = append(items, msg)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate messages: %w", rows.Err())
	}

	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}

// LastByMatches returns the newest message of each match that has one.
func (r *MessageRepo) LastByMatches(ctx context.Context, matchIDs []uuid.UUID) (map[uuid.UUID]model.Message, error) {
	out := make(map[uuid.UUID]model.Message, len(matchIDs))
	if len(matchIDs) == 0 {
		return out, nil
	}
	q, err := pick(r.pool, nil)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(matchIDs))
	for _, id := range matchIDs {
		ids = append(ids, id.String())
	}

	rows, err := q.Query(ctx, `
SELECT DISTINCT ON (match_id) id, match_id, sender_id, seq, content, sent_at
FROM messages
WHERE match_id = ANY($1::uuid[])
ORDER BY match_id, seq DESC
`, ids)
	if err != nil {
		return nil, fmt.Errorf("list last messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var msg model.Message
		if err := rows.Scan(&msg.ID, &msg.MatchID, &msg.SenderID, &msg.Seq, &msg.Content, &msg.SentAt); err != nil {
			return nil, fmt.Errorf("scan last message: %w", err)
		}
		out[msg.MatchID] = msg
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate last messages: %w", rows.Err())
	}

	return out, nil
}
