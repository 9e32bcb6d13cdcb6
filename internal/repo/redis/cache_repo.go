package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ivankudzin/tgapp/matchengine/internal/domain/model"
)

const summaryPrefix = "directory:summary:"

// CacheRepo caches directory summaries as JSON strings with a TTL.
type CacheRepo struct {
	client *goredis.Client
}

func NewCacheRepo(client *goredis.Client) *CacheRepo {
	return &CacheRepo{client: client}
}

// GetSummaries returns the cached summaries and the ids that missed.
func (r *CacheRepo) GetSummaries(ctx context.Context, userIDs []int64) (map[int64]model.UserSummary, []int64, error) {
	found := make(map[int64]model.UserSummary, len(userIDs))
	if len(userIDs) == 0 {
		return found, nil, nil
	}
	if r.client == nil {
		return nil, nil, fmt.Errorf("redis client is nil")
	}

	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, summaryKey(id))
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("read cached summaries: %w", err)
	}

	missing := make([]int64, 0)
	for i, raw := range values {
		s, ok := raw.(string)
		if !ok {
			missing = append(missing, userIDs[i])
			continue
		}
		var item model.UserSummary
		if err := json.Unmarshal([]byte(s), &item); err != nil {
			missing = append(missing, userIDs[i])
			continue
		}
		found[userIDs[i]] = item
	}

	return found, missing, nil
}

func (r *CacheRepo) SetSummaries(ctx context.Context, items []model.UserSummary, ttl time.Duration) error {
	if len(items) == 0 {
		return nil
	}
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if ttl <= 0 {
		ttl = time.Minute
	}

	pipe := r.client.Pipeline()
	for _, item := range items {
		payload, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal summary %d: %w", item.ID, err)
		}
		pipe.Set(ctx, summaryKey(item.ID), payload, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write cached summaries: %w", err)
	}

	return nil
}

func summaryKey(userID int64) string {
	return summaryPrefix + strconv.FormatInt(userID, 10)
}
