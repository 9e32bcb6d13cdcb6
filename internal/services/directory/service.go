package directory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/matchengine/internal/domain/apperr"
	"github.com/ivankudzin/tgapp/matchengine/internal/domain/model"
)

type ProfileStore interface {
	GetSummaries(ctx context.Context, userIDs []int64) (map[int64]model.UserSummary, error)
	ListCandidates(ctx context.Context, userID int64, exclude []int64, limit int) ([]model.UserSummary, error)
}

type SummaryCache interface {
	GetSummaries(ctx context.Context, userIDs []int64) (map[int64]model.UserSummary, []int64, error)
	SetSummaries(ctx context.Context, items []model.UserSummary, ttl time.Duration) error
}

type Config struct {
	CacheTTL time.Duration
}

type Dependencies struct {
	Profiles ProfileStore
	Cache    SummaryCache
	Logger   *zap.Logger
}

// Service is the engine's read-only window onto the identity directory.
type Service struct {
	profiles ProfileStore
	cache    SummaryCache
	logger   *zap.Logger
	cfg      Config
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		profiles: deps.Profiles,
		cache:    deps.Cache,
		logger:   logger,
		cfg:      cfg,
	}
}

// Resolve returns the summaries that exist for userIDs. Unknown ids are simply absent.
func (s *Service) Resolve(ctx context.Context, userIDs ...int64) (map[int64]model.UserSummary, error) {
	if s.profiles == nil {
		return nil, fmt.Errorf("directory dependencies are not configured")
	}
	ids := uniquePositive(userIDs)
	out := make(map[int64]model.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	missing := ids
	if s.cache != nil {
		cached, miss, err := s.cache.GetSummaries(ctx, ids)
		if err != nil {
			s.logger.Warn("directory cache read failed", zap.Error(err))
		} else {
			for id, item := range cached {
				out[id] = item
			}
			missing = miss
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	loaded, err := s.profiles.GetSummaries(ctx, missing)
	if err != nil {
		return nil, err
	}

	fresh := make([]model.UserSummary, 0, len(loaded))
	for id, item := range loaded {
		out[id] = item
		fresh = append(fresh, item)
	}
	if s.cache != nil && len(fresh) > 0 {
		if err := s.cache.SetSummaries(ctx, fresh, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("directory cache write failed", zap.Error(err))
		}
	}

	return out, nil
}

// Require resolves every id or fails with apperr.ErrNotFound naming the first missing one.
func (s *Service) Require(ctx context.Context, userIDs ...int64) (map[int64]model.UserSummary, error) {
	found, err := s.Resolve(ctx, userIDs...)
	if err != nil {
		return nil, err
	}
	for _, id := range userIDs {
		if _, ok := found[id]; !ok {
			return nil, apperr.NotFound("user %d", id)
		}
	}
	return found, nil
}

// Candidates asks the directory for discoverable users, never returning userID or anyone in exclude.
func (s *Service) Candidates(ctx context.Context, userID int64, exclude []int64, limit int) ([]model.UserSummary, error) {
	if s.profiles == nil {
		return nil, fmt.Errorf("directory dependencies are not configured")
	}
	items, err := s.profiles.ListCandidates(ctx, userID, exclude, limit)
	if err != nil {
		return nil, err
	}

	skip := make(map[int64]struct{}, len(exclude)+1)
	skip[userID] = struct{}{}
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	out := items[:0]
	for _, item := range items {
		if _, ok := skip[item.ID]; ok {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func uniquePositive(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
