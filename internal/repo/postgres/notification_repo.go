package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/tgapp/matchengine/internal/domain/model"
)

const notificationColumns = `id, recipient_id, type, title, body, data, dedupe_key, created_at, read, read_at`

type NotificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

// Insert stores n unless the recipient already has a notification with the same dedupe key.
func (r *NotificationRepo) Insert(ctx context.Context, tx pgx.Tx, n model.Notification) (bool, error) {
	if n.RecipientID <= 0 || !n.Type.Valid() || strings.TrimSpace(n.DedupeKey) == "" {
		return false, fmt.Errorf("invalid notification payload")
	}
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.Data == nil {
		n.Data = map[string]any{}
	}

	var id uuid.UUID
	err := tx.QueryRow(ctx, `
INSERT INTO notifications (
	id,
	recipient_id,
	type,
	title,
	body,
	data,
	dedupe_key,
	created_at,
	read
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE)
ON CONFLICT (recipient_id, dedupe_key) DO NOTHING
RETURNING id
`, n.ID, n.RecipientID, string(n.Type), n.Title, n.Body, n.Data, n.DedupeKey, n.CreatedAt.UTC()).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("insert notification: %w", mapPgError(err))
	}

	return true, nil
}

func (r *NotificationRepo) Get(ctx context.Context, tx pgx.Tx, notificationID uuid.UUID) (model.Notification, bool, error) {
	q, err := pick(r.pool, tx)
	if err != nil {
		return model.Notification{}, false, err
	}

	n, err := scanNotification(q.QueryRow(ctx, `
SELECT `+notificationColumns+`
FROM notifications
WHERE id = $1
`, notificationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Notification{}, false, nil
		}
		return model.Notification{}, false, fmt.Errorf("get notification: %w", err)
	}
	return n, true, nil
}

func (r *NotificationRepo) ListForRecipient(ctx context.Context, recipientID int64, limit int) ([]model.Notification, error) {
	if recipientID <= 0 {
		return nil, fmt.Errorf("invalid recipient id")
	}
	if limit <= 0 {
		limit = 50
	}
	q, err := pick(r.pool, nil)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
SELECT `+notificationColumns+`
FROM notifications
WHERE recipient_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	items := make([]model.Notification, 0, limit)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		items = append(items, n)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate notifications: %w", rows.Err())
	}

	return items, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, tx pgx.Tx, notificationID uuid.UUID, now time.Time) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if _, err := tx.Exec(ctx, `
UPDATE notifications
SET read = TRUE, read_at = $2
WHERE id = $1 AND NOT read
`, notificationID, now.UTC()); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead flips every notification that is unread in the statement's snapshot.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, recipientID int64, now time.Time) (int64, error) {
	if recipientID <= 0 {
		return 0, fmt.Errorf("invalid recipient id")
	}
	q, err := pick(r.pool, nil)
	if err != nil {
		return 0, err
	}

	result, err := q.Exec(ctx, `
UPDATE notifications
SET read = TRUE, read_at = $2
WHERE recipient_id = $1 AND NOT read
`, recipientID, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return result.RowsAffected(), nil
}

// DeleteReadBefore purges read match and message notifications older than cutoff.
func (r *NotificationRepo) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	q, err := pick(r.pool, nil)
	if err != nil {
		return 0, err
	}

	result, err := q.Exec(ctx, `
DELETE FROM notifications
WHERE read AND type <> 'like' AND created_at < $1
`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete read notifications: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *NotificationRepo) CountUnread(ctx context.Context, recipientID int64) (int, error) {
	q, err := pick(r.pool, nil)
	if err != nil {
		return 0, err
	}

	var count int
	if err := q.QueryRow(ctx, `
SELECT COUNT(*)
FROM notifications
WHERE recipient_id = $1 AND NOT read
`, recipientID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

func scanNotification(row pgx.Row) (model.Notification, error) {
	var n model.Notification
	err := row.Scan(
		&n.ID,
		&n.RecipientID,
		&n.Type,
		&n.Title,
		&n.Body,
		&n.Data,
		&n.DedupeKey,
		&n.CreatedAt,
		&n.Read,
		&n.ReadAt,
	)
	return n, err
}
