package memstore

import (
	"context"
	"sort"

	"github.com/ivankudzin/tgapp/matchengine/internal/domain/model"
)

type Profiles struct {
	s *Store
}

func (r *Profiles) GetSummaries(_ context.Context, userIDs []int64) (map[int64]model.UserSummary, error) {
	out := make(map[int64]model.UserSummary, len(userIDs))
	r.s.read(nil, func(st *state) {
		for _, id := range userIDs {
			if u, ok := st.profiles[id]; ok {
				out[id] = u
			}
		}
	})
	return out, nil
}

func (r *Profiles) ListCandidates(_ context.Context, userID int64, exclude []int64, limit int) ([]model.UserSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	skip := make(map[int64]struct{}, len(exclude)+1)
	skip[userID] = struct{}{}
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	out := make([]model.UserSummary, 0)
	r.s.read(nil, func(st *state) {
		for id, u := range st.profiles {
			if _, ok := skip[id]; !ok {
				out = append(out, u)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
