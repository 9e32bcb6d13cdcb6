package rate

import (
	"context"
	"fmt"
	"time"
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// window is one fixed-window budget. A zero limit disables it.
type window struct {
	name   string
	length time.Duration
	limit  int64
}

// Limiter caps likes per user with fixed windows shared across API replicas.
type Limiter struct {
	store   WindowStore
	windows []window
}

func NewLimiter(store WindowStore, perMinute, per10Sec int) *Limiter {
	return &Limiter{
		store: store,
		windows: []window{
			{name: "min", length: time.Minute, limit: int64(max(perMinute, 0))},
			{name: "10s", length: 10 * time.Second, limit: int64(max(per10Sec, 0))},
		},
	}
}

// AllowLike returns nil when the like may proceed and a *TooFastError when a window is exhausted.
// Every enabled window is charged, so the longest remaining wait wins.
func (l *Limiter) AllowLike(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return fmt.Errorf("invalid user id")
	}
	if l.store == nil {
		return fmt.Errorf("rate limiter store is nil")
	}

	var retryAfter int64
	for _, w := range l.windows {
		if w.limit == 0 {
			continue
		}
		count, left, err := l.store.IncrementWindow(ctx, fmt.Sprintf("rate:likes:%s:%d", w.name, userID), w.length)
		if err != nil {
			return err
		}
		if count > w.limit {
			retryAfter = max(retryAfter, ceilSeconds(left))
		}
	}

	if retryAfter > 0 {
		return &TooFastError{RetryAfterSec: retryAfter}
	}
	return nil
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 1
	}
	return int64((d + time.Second - 1) / time.Second)
}
