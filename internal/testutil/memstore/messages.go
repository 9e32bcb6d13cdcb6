package memstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ivankudzin/tgapp/matchengine/internal/domain/apperr"
	"github.com/ivankudzin/tgapp/matchengine/internal/domain/model"
)

type Messages struct {
	s *Store
}

func (r *Messages) Insert(_ context.Context, tx pgx.Tx, msg model.Message) error {
	if msg.ID == uuid.Nil || msg.MatchID == uuid.Nil || msg.SenderID <= 0 || msg.Seq <= 0 {
		return fmt.Errorf("invalid message payload")
	}
	return r.s.write(tx, func(st *state) error {
		for _, existing := range st.messages[msg.MatchID] {
			if existing.Seq == msg.Seq || existing.ID == msg.ID {
				return fmt.Errorf("insert message: %w", apperr.ErrConflict)
			}
		}
		st.messages[msg.MatchID] = append(st.messages[msg.MatchID], msg)
		return nil
	})
}

func (r *Messages) ListByMatch(_ context.Context, matchID uuid.UUID, afterSeq int64, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	out := make([]model.Message, 0)
	r.s.read(nil, func(st *state) {
		for _, msg := range st.messages[matchID] {
			if msg.Seq <= afterSeq {
				continue
			}
			out = append(out, msg)
			if len(out) == limit {
				break
			}
		}
	})
	return out, nil
}

func (r *Messages) ListLatest(_ context.Context, matchID uuid.UUID, beforeSeq int64, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	out := make([]model.Message, 0)
	r.s.read(nil, func(st *state) {
		msgs := st.messages[matchID]
		end := len(msgs)
		if beforeSeq > 0 {
			end = 0
			for end < len(msgs) && msgs[end].Seq < beforeSeq {
				end++
			}
		}
		start := end - limit
		if start < 0 {
			start = 0
		}
		out = append(out, msgs[start:end]...)
	})
	return out, nil
}

func (r *Messages) LastByMatches(_ context.Context, matchIDs []uuid.UUID) (map[uuid.UUID]model.Message, error) {
	out := make(map[uuid.UUID]model.Message, len(matchIDs))
	r.s.read(nil, func(st *state) {
		for _, id := range matchIDs {
			msgs := st.messages[id]
			if len(msgs) > 0 {
				out[id] = msgs[len(msgs)-1]
			}
		}
	})
	return out, nil
}
