package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	defaultRetention = 90 * 24 * time.Hour
	defaultInterval  = 6 * time.Hour
)

// NotificationPurger deletes read notifications older than cutoff. Like notifications are kept because
// their dedupe key is what stops a repeated like from notifying twice.
type NotificationPurger interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Job struct {
	notifications NotificationPurger
	retention     time.Duration
	now           func() time.Time
	logger        *zap.Logger
}

func NewNotificationCleanupJob(notifications NotificationPurger, retention time.Duration, logger *zap.Logger) *Job {
	if retention <= 0 {
		retention = defaultRetention
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		notifications: notifications,
		retention:     retention,
		now:           time.Now,
		logger:        logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.notifications == nil {
		return nil
	}

	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.notifications.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("delete read notifications: %w", err)
	}
	if deleted > 0 {
		j.logger.Info("cleanup read notifications completed", zap.Int64("deleted", deleted), zap.Time("cutoff", cutoff))
	}
	return nil
}

// Loop runs the job immediately and then every interval until ctx ends. Failed runs are logged and retried
// on the next tick.
func (j *Job) Loop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultInterval
	}

	if err := j.Run(ctx); err != nil {
		j.logger.Warn("notification cleanup failed", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Warn("notification cleanup failed", zap.Error(err))
			}
		}
	}
}
