package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/tgapp/matchengine/internal/domain/model"
)

// ProfileRepo reads the identity directory's profiles table. The engine never writes to it.
type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

const summaryColumns = `
	p.user_id,
	p.display_name,
	COALESCE(DATE_PART('year', AGE(NOW(), p.birthdate::timestamp))::int, 0),
	p.location,
	p.bio,
	p.photos,
	p.verified,
	COALESCE(p.last_seen_at > NOW() - INTERVAL '5 minutes', FALSE)`

func (r *ProfileRepo) GetSummaries(ctx context.Context, userIDs []int64) (map[int64]model.UserSummary, error) {
	out := make(map[int64]model.UserSummary, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	q, err := pick(r.pool, nil)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
SELECT`+summaryColumns+`
FROM profiles p
WHERE p.user_id = ANY($1)
`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("get profile summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile summary: %w", err)
		}
		out[item.ID] = item
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate profile summaries: %w", rows.Err())
	}

	return out, nil
}

// ListCandidates returns discoverable users other than userID and the excluded ids, newest profiles first.
func (r *ProfileRepo) ListCandidates(ctx context.Context, userID int64, exclude []int64, limit int) ([]model.UserSummary, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if limit <= 0 {
		limit = 20
	}
	if exclude == nil {
		exclude = []int64{}
	}
	q, err := pick(r.pool, nil)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
SELECT`+summaryColumns+`
FROM profiles p
WHERE
	p.user_id <> $1
	AND p.discoverable
	AND NOT (p.user_id = ANY($2))
ORDER BY p.created_at DESC, p.user_id DESC
LIMIT $3
`, userID, exclude, limit)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	items := make([]model.UserSummary, 0, limit)
	for rows.Next() {
		item, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate candidates: %w", rows.Err())
	}

	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (model.UserSummary, error) {
	var item model.UserSummary
	err := row.Scan(
		&item.ID,
		&item.DisplayName,
		&item.Age,
		&item.Location,
		&item.Bio,
		&item.Photos,
		&item.Verified,
		&item.Online,
	)
	return item, err
}
