package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/curbline/curbline/internal/domain"
	"github.com/curbline/curbline/internal/repository"
	redisrepo "github.com/curbline/curbline/internal/repository/redis"
)

type Config struct {
	SpotTTL     time.Duration
	ListingTTL  time.Duration
	DefaultPage int
	MaxPage     int
}

// Service serves the read side: single spots, filtered listings, the
// per-user view and handoff history. Hot reads go through the cache;
// anything filtered or paginated beyond the default page hits the
// store directly since the hit rate would not pay for the keys.
type Service struct {
	store repository.SpotStore
	cache *redisrepo.Cache
	cfg   Config
}

func New(store repository.SpotStore, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.SpotTTL <= 0 {
		cfg.SpotTTL = 15 * time.Second
	}

	if cfg.ListingTTL <= 0 {
		cfg.ListingTTL = 10 * time.Second
	}

	if cfg.DefaultPage <= 0 {
		cfg.DefaultPage = 50
	}

	if cfg.MaxPage <= 0 {
		cfg.MaxPage = 200
	}

	return &Service{
		store: store,
		cache: cache,
		cfg:   cfg,
	}
}

// SpotHistory pairs a spot with its recorded handoff, if any.
type SpotHistory struct {
	Spot    domain.Spot     `json:"spot"`
	Handoff *domain.Handoff `json:"handoff,omitempty"`
}

func (s *Service) GetSpot(ctx context.Context, id uuid.UUID) (*domain.Spot, error) {
	const op = "service.query.GetSpot"

	load := func(ctx context.Context) (domain.Spot, error) {
		spot, err := s.store.GetSpot(ctx, id)
		if err != nil {
			return domain.Spot{}, err
		}
		return *spot, nil
	}

	var (
		spot domain.Spot
		err  error
	)

	if s.cache != nil {
		spot, err = redisrepo.GetOrSetJSON(ctx, s.cache, redisrepo.KeySpot(id.String()), s.cfg.SpotTTL, load)
	} else {
		spot, err = load(ctx)
	}

	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrSpotNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &spot, nil
}

// ListAvailable returns available spots matching the filter, ordered by
// availability time. Only the unfiltered first page is cached.
func (s *Service) ListAvailable(ctx context.Context, f domain.SpotFilter, limit, offset int) ([]domain.Spot, error) {
	const op = "service.query.ListAvailable"

	limit = s.clampLimit(limit)
	if offset < 0 {
		offset = 0
	}

	if s.cache != nil && f.IsZero() && offset == 0 && limit == s.cfg.DefaultPage {
		spots, err := redisrepo.GetOrSetJSON(ctx, s.cache, redisrepo.KeyAvailableSpots(), s.cfg.ListingTTL,
			func(ctx context.Context) ([]domain.Spot, error) {
				return s.store.ListAvailable(ctx, f, limit, offset)
			})
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		return spots, nil
	}

	spots, err := s.store.ListAvailable(ctx, f, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return spots, nil
}

// SnapshotAvailable returns the complete set of available spots
// matching the filter, paging the store in MaxPage batches. Feed
// resyncs read through here: a truncated snapshot would leave a
// reconnecting subscriber permanently blind to spots they never see
// mutate. Never cached.
func (s *Service) SnapshotAvailable(ctx context.Context, f domain.SpotFilter) ([]domain.Spot, error) {
	const op = "service.query.SnapshotAvailable"

	var all []domain.Spot
	for offset := 0; ; {
		page, err := s.store.ListAvailable(ctx, f, s.cfg.MaxPage, offset)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}

		all = append(all, page...)
		if len(page) < s.cfg.MaxPage {
			return all, nil
		}
		offset += len(page)
	}
}

// ListByUser returns the spots a user posted and the ones they hold a
// reservation on. Never cached, the owner expects to see their own
// writes immediately.
func (s *Service) ListByUser(ctx context.Context, userID string) (posted, reserved []domain.Spot, err error) {
	const op = "service.query.ListByUser"

	posted, reserved, err = s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s:%w", op, err)
	}

	return posted, reserved, nil
}

// SpotHistory returns the spot together with its handoff record once
// one exists.
func (s *Service) SpotHistory(ctx context.Context, id uuid.UUID) (*SpotHistory, error) {
	const op = "service.query.SpotHistory"

	load := func(ctx context.Context) (SpotHistory, error) {
		spot, err := s.store.GetSpot(ctx, id)
		if err != nil {
			return SpotHistory{}, err
		}

		h, err := s.store.GetHandoffBySpot(ctx, id)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return SpotHistory{}, err
		}

		return SpotHistory{Spot: *spot, Handoff: h}, nil
	}

	var (
		hist SpotHistory
		err  error
	)

	if s.cache != nil {
		hist, err = redisrepo.GetOrSetJSON(ctx, s.cache, redisrepo.KeySpotHistory(id.String()), s.cfg.SpotTTL, load)
	} else {
		hist, err = load(ctx)
	}

	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrSpotNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &hist, nil
}

func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultPage
	}
	if limit > s.cfg.MaxPage {
		return s.cfg.MaxPage
	}
	return limit
}
