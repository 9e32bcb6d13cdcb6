package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ivankudzin/tgapp/matchengine/internal/domain/model"
	"github.com/ivankudzin/tgapp/matchengine/internal/domain/rules"
)

type Matches struct {
	s *Store
}

func (r *Matches) CreateIfAbsent(_ context.Context, tx pgx.Tx, m model.Match) (model.Match, bool, error) {
	if m.UserAID <= 0 || m.UserBID <= 0 || m.UserAID == m.UserBID {
		return model.Match{}, false, fmt.Errorf("invalid match payload")
	}
	var (
		out     model.Match
		created bool
	)
	err := r.s.write(tx, func(st *state) error {
		lo, hi := rules.CanonicalPair(m.UserAID, m.UserBID)
		if _, taken := st.pairs[pairKey{lo, hi}]; taken {
			return nil
		}
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		m.UserAID, m.UserBID = lo, hi
		m.Active = true
		m.LastMessageSeq = 0
		m.DeactivatedAt = nil
		st.matches[m.ID] = m
		st.pairs[pairKey{lo, hi}] = m.ID
		out, created = m, true
		return nil
	})
	return out, created, err
}

func (r *Matches) GetByPair(_ context.Context, tx pgx.Tx, userID, otherID int64) (model.Match, bool, error) {
	var (
		m  model.Match
		ok bool
	)
	r.s.read(tx, func(st *state) {
		lo, hi := rules.CanonicalPair(userID, otherID)
		id, found := st.pairs[pairKey{lo, hi}]
		if found {
			m, ok = st.matches[id]
		}
	})
	return m, ok, nil
}

func (r *Matches) GetByID(_ context.Context, tx pgx.Tx, matchID uuid.UUID) (model.Match, bool, error) {
	var (
		m  model.Match
		ok bool
	)
	r.s.read(tx, func(st *state) {
		m, ok = st.matches[matchID]
	})
	return m, ok, nil
}

func (r *Matches) LockByID(ctx context.Context, tx pgx.Tx, matchID uuid.UUID) (model.Match, bool, error) {
	if tx == nil {
		return model.Match{}, false, errTxRequired
	}
	return r.GetByID(ctx, tx, matchID)
}

func (r *Matches) NextMessageSeq(_ context.Context, tx pgx.Tx, matchID uuid.UUID) (int64, error) {
	var seq int64
	err := r.s.write(tx, func(st *state) error {
		m, ok := st.matches[matchID]
		if !ok {
			return fmt.Errorf("bump message seq: match %s not found", matchID)
		}
		m.LastMessageSeq++
		st.matches[matchID] = m
		seq = m.LastMessageSeq
		return nil
	})
	return seq, err
}

func (r *Matches) ListForUser(_ context.Context, userID int64) ([]model.Match, error) {
	out := make([]model.Match, 0)
	r.s.read(nil, func(st *state) {
		for _, m := range st.matches {
			if m.HasParticipant(userID) {
				out = append(out, m)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	return out, nil
}

func (r *Matches) Deactivate(_ context.Context, tx pgx.Tx, matchID uuid.UUID, now time.Time) (bool, error) {
	var changed bool
	err := r.s.write(tx, func(st *state) error {
		m, ok := st.matches[matchID]
		if !ok || !m.Active {
			return nil
		}
		at := now.UTC()
		m.Active = false
		m.DeactivatedAt = &at
		st.matches[matchID] = m
		changed = true
		return nil
	})
	return changed, err
}

// Count reports how many match rows exist, active or not.
func (r *Matches) Count() int {
	var n int
	r.s.read(nil, func(st *state) { n = len(st.matches) })
	return n
}
