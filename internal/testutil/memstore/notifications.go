package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ivankudzin/tgapp/matchengine/internal/domain/enums"
	"github.com/ivankudzin/tgapp/matchengine/internal/domain/model"
)

type Notifications struct {
	s *Store
}

func (r *Notifications) Insert(_ context.Context, tx pgx.Tx, n model.Notification) (bool, error) {
	if n.RecipientID <= 0 || !n.Type.Valid() || n.DedupeKey == "" {
		return false, fmt.Errorf("invalid notification payload")
	}
	var inserted bool
	err := r.s.write(tx, func(st *state) error {
		key := dedupeKey{recipientID: n.RecipientID, key: n.DedupeKey}
		if _, dup := st.dedupe[key]; dup {
			return nil
		}
		if n.ID == uuid.Nil {
			n.ID = uuid.New()
		}
		if n.Data == nil {
			n.Data = map[string]any{}
		}
		n.Read = false
		n.ReadAt = nil
		st.notifications[n.ID] = n
		st.dedupe[key] = n.ID
		inserted = true
		return nil
	})
	return inserted, err
}

func (r *Notifications) Get(_ context.Context, tx pgx.Tx, notificationID uuid.UUID) (model.Notification, bool, error) {
	var (
		n  model.Notification
		ok bool
	)
	r.s.read(tx, func(st *state) {
		n, ok = st.notifications[notificationID]
	})
	return n, ok, nil
}

func (r *Notifications) ListForRecipient(_ context.Context, recipientID int64, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	out := r.forRecipient(recipientID)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Notifications) MarkRead(_ context.Context, tx pgx.Tx, notificationID uuid.UUID, now time.Time) error {
	return r.s.write(tx, func(st *state) error {
		n, ok := st.notifications[notificationID]
		if !ok || n.Read {
			return nil
		}
		at := now.UTC()
		n.Read = true
		n.ReadAt = &at
		st.notifications[notificationID] = n
		return nil
	})
}

func (r *Notifications) MarkAllRead(_ context.Context, recipientID int64, now time.Time) (int64, error) {
	var changed int64
	r.s.read(nil, func(st *state) {
		at := now.UTC()
		for id, n := range st.notifications {
			if n.RecipientID != recipientID || n.Read {
				continue
			}
			n.Read = true
			n.ReadAt = &at
			st.notifications[id] = n
			changed++
		}
	})
	return changed, nil
}

func (r *Notifications) CountUnread(_ context.Context, recipientID int64) (int, error) {
	count := 0
	for _, n := range r.forRecipient(recipientID) {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

// ByType lists a recipient's notifications of one type, newest first.
func (r *Notifications) ByType(recipientID int64, typ enums.NotificationType) []model.Notification {
	out := make([]model.Notification, 0)
	for _, n := range r.forRecipient(recipientID) {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

func (r *Notifications) forRecipient(recipientID int64) []model.Notification {
	out := make([]model.Notification, 0)
	r.s.read(nil, func(st *state) {
		for _, n := range st.notifications {
			if n.RecipientID == recipientID {
				out = append(out, n)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	return out
}

func (r *Notifications) DeleteReadBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	r.s.read(nil, func(st *state) {
		for id, n := range st.notifications {
			if !n.Read || n.Type == enums.NotificationTypeLike || !n.CreatedAt.Before(cutoff) {
				continue
			}
			delete(st.notifications, id)
			delete(st.dedupe, dedupeKey{recipientID: n.RecipientID, key: n.DedupeKey})
			deleted++
		}
	})
	return deleted, nil
}
