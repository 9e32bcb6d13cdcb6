package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ivankudzin/tgapp/matchengine/internal/domain/enums"
	"github.com/ivankudzin/tgapp/matchengine/internal/domain/model"
)

type Swipes struct {
	s *Store
}

// LockPair is a no-op: WithTx already serializes every transaction.
func (r *Swipes) LockPair(_ context.Context, tx pgx.Tx, _, _ int64) error {
	if tx == nil {
		return errTxRequired
	}
	return nil
}

func (r *Swipes) Upsert(_ context.Context, tx pgx.Tx, actorUserID, targetUserID int64, action enums.SwipeAction, now time.Time) (model.Swipe, error) {
	if actorUserID <= 0 || targetUserID <= 0 || action == "" {
		return model.Swipe{}, fmt.Errorf("invalid swipe payload")
	}
	var out model.Swipe
	err := r.s.write(tx, func(st *state) error {
		key := pairKey{actorUserID, targetUserID}
		rec, ok := st.swipes[key]
		if !ok {
			rec = model.Swipe{ActorUserID: actorUserID, TargetUserID: targetUserID, CreatedAt: now.UTC()}
		}
		rec.Action = action
		rec.UpdatedAt = now.UTC()
		st.swipes[key] = rec
		out = rec
		return nil
	})
	return out, err
}

func (r *Swipes) Get(_ context.Context, tx pgx.Tx, actorUserID, targetUserID int64) (model.Swipe, bool, error) {
	var (
		rec model.Swipe
		ok  bool
	)
	r.s.read(tx, func(st *state) {
		rec, ok = st.swipes[pairKey{actorUserID, targetUserID}]
	})
	return rec, ok, nil
}

func (r *Swipes) ListByActor(_ context.Context, actorUserID int64) ([]model.Swipe, error) {
	return r.filter(func(sw model.Swipe) bool { return sw.ActorUserID == actorUserID }), nil
}

func (r *Swipes) ListIncoming(_ context.Context, targetUserID int64) ([]model.Swipe, error) {
	return r.filter(func(sw model.Swipe) bool { return sw.TargetUserID == targetUserID }), nil
}

func (r *Swipes) filter(keep func(model.Swipe) bool) []model.Swipe {
	out := make([]model.Swipe, 0)
	r.s.read(nil, func(st *state) {
		for _, sw := range st.swipes {
			if keep(sw) {
				out = append(out, sw)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		if out[i].ActorUserID != out[j].ActorUserID {
			return out[i].ActorUserID < out[j].ActorUserID
		}
		return out[i].TargetUserID < out[j].TargetUserID
	})
	return out
}
