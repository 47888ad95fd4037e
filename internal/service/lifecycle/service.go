package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/curbline/curbline/internal/domain"
	"github.com/curbline/curbline/internal/repository"
	redisrepo "github.com/curbline/curbline/internal/repository/redis"
)

// Publisher broadcasts an accepted spot transition so feed subscribers
// on this and other instances can pick it up. Delivery is best-effort:
// the transition is already committed when Publish is called.
type Publisher interface {
	PublishSpotChanged(ctx context.Context, spotID uuid.UUID, change domain.ChangeKind) error
}

type Config struct {
	MinPriceCents  int
	MaxPriceCents  int
	MinLeadTime    time.Duration
	MaxLeadTime    time.Duration
	MaxDurationMin int
	FeePercent     int
}

// Service owns every spot state transition. All writes funnel through
// the store's conditional updates, so two callers racing on the same
// spot resolve to exactly one winner regardless of instance count.
type Service struct {
	store   repository.SpotStore
	cache   *redisrepo.Cache
	pub     Publisher
	limiter *redisrepo.SlidingWindowLimiter
	cfg     Config
	now     func() time.Time
}

func New(
	store repository.SpotStore,
	cache *redisrepo.Cache,
	pub Publisher,
	limiter *redisrepo.SlidingWindowLimiter,
	cfg Config,
) *Service {
	if cfg.MinPriceCents <= 0 {
		cfg.MinPriceCents = 100
	}

	if cfg.MaxPriceCents <= 0 || cfg.MaxPriceCents < cfg.MinPriceCents {
		cfg.MaxPriceCents = 2000
	}

	if cfg.MinLeadTime <= 0 {
		cfg.MinLeadTime = 5 * time.Minute
	}

	if cfg.MaxLeadTime <= 0 || cfg.MaxLeadTime < cfg.MinLeadTime {
		cfg.MaxLeadTime = 4 * time.Hour
	}

	if cfg.MaxDurationMin <= 0 {
		cfg.MaxDurationMin = 60
	}

	if cfg.FeePercent <= 0 {
		cfg.FeePercent = 25
	}

	return &Service{
		store:   store,
		cache:   cache,
		pub:     pub,
		limiter: limiter,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Create validates a draft against the posting rules and records the
// spot as available. The spot's expiry is fixed at creation time:
// availableAt plus the advertised duration.
//
// Returns:
//   - uuid.UUID: the ID of the created spot.
//   - error: lifecycle.ErrInvalidAddress, ErrInvalidPrice,
//     ErrInvalidTiming, ErrInvalidCategory or ErrLocationNotVerified
//     on validation failure.
func (s *Service) Create(ctx context.Context, draft domain.SpotDraft, loc domain.VerifiedLocation) (uuid.UUID, error) {
	const op = "service.lifecycle.Create"

	now := s.now()

	if strings.TrimSpace(draft.Address) == "" || strings.TrimSpace(draft.City) == "" {
		return uuid.Nil, fmt.Errorf("%s:%w", op, ErrInvalidAddress)
	}

	if draft.PriceCents < s.cfg.MinPriceCents || draft.PriceCents > s.cfg.MaxPriceCents {
		return uuid.Nil, fmt.Errorf("%s:%w: got %d cents, want [%d, %d]",
			op, ErrInvalidPrice, draft.PriceCents, s.cfg.MinPriceCents, s.cfg.MaxPriceCents)
	}

	if !domain.ValidCategory(draft.Category) {
		return uuid.Nil, fmt.Errorf("%s:%w: %q", op, ErrInvalidCategory, draft.Category)
	}

	if draft.AvailableAt.Before(now.Add(s.cfg.MinLeadTime)) ||
		draft.AvailableAt.After(now.Add(s.cfg.MaxLeadTime)) {
		return uuid.Nil, fmt.Errorf("%s:%w", op, ErrInvalidTiming)
	}

	if draft.DurationMin <= 0 || draft.DurationMin > s.cfg.MaxDurationMin {
		return uuid.Nil, fmt.Errorf("%s:%w: duration %d min", op, ErrInvalidTiming, draft.DurationMin)
	}

	if !loc.Verified {
		return uuid.Nil, fmt.Errorf("%s:%w", op, ErrLocationNotVerified)
	}

	spot := domain.Spot{
		ID:               uuid.New(),
		OwnerID:          draft.OwnerID,
		Lat:              loc.Lat,
		Lng:              loc.Lng,
		LocationVerified: true,
		Address:          strings.TrimSpace(draft.Address),
		City:             strings.TrimSpace(draft.City),
		Description:      strings.TrimSpace(draft.Description),
		PriceCents:       draft.PriceCents,
		Category:         draft.Category,
		AvailableAt:      draft.AvailableAt,
		DurationMin:      draft.DurationMin,
		ExpiresAt:        draft.AvailableAt.Add(time.Duration(draft.DurationMin) * time.Minute),
		Status:           domain.SpotAvailable,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.store.CreateSpot(ctx, &spot); err != nil {
		return uuid.Nil, fmt.Errorf("%s:%w", op, err)
	}

	s.afterTransition(ctx, spot.ID, domain.ChangeCreated)

	return spot.ID, nil
}

// Reserve claims an available spot for callerID. At most one caller
// ever wins a given spot; every loser gets an error explaining which
// precondition failed at the moment of arbitration.
//
// Returns:
//   - *domain.Spot: the spot in its reserved state.
//   - error: lifecycle.ErrSpotNotFound, ErrCannotReserveOwnSpot,
//     ErrSpotExpired or ErrConflict.
func (s *Service) Reserve(ctx context.Context, spotID uuid.UUID, callerID, rlKey string) (*domain.Spot, error) {
	const op = "service.lifecycle.Reserve"

	if s.limiter != nil && rlKey != "" {
		ok, _, retry, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		if !ok {
			return nil, fmt.Errorf("%s: rate limited, retry in %s", op, retry)
		}
	}

	spot, err := s.store.ReserveSpot(ctx, spotID, callerID, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, s.translateStoreErr(err))
	}

	s.afterTransition(ctx, spot.ID, domain.ChangeReserved)

	return spot, nil
}

// Complete marks a reserved spot as handed off and records the handoff
// with the platform fee. Only the owner may complete, and only from the
// reserved state.
func (s *Service) Complete(ctx context.Context, spotID uuid.UUID, callerID string) (*domain.Spot, error) {
	const op = "service.lifecycle.Complete"

	cur, err := s.store.GetSpot(ctx, spotID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, s.translateStoreErr(err))
	}

	fee := cur.PriceCents * s.cfg.FeePercent / 100

	spot, err := s.store.CompleteSpot(ctx, spotID, callerID, fee, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, s.translateStoreErr(err))
	}

	s.afterTransition(ctx, spot.ID, domain.ChangeCompleted)

	return spot, nil
}

// Cancel withdraws an available spot. A spot that has already been
// reserved cannot be cancelled out from under the reserver.
func (s *Service) Cancel(ctx context.Context, spotID uuid.UUID, callerID string) (*domain.Spot, error) {
	const op = "service.lifecycle.Cancel"

	spot, err := s.store.CancelSpot(ctx, spotID, callerID, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, s.translateStoreErr(err))
	}

	s.afterTransition(ctx, spot.ID, domain.ChangeCancelled)

	return spot, nil
}

// ExpireDue transitions every overdue available spot to expired and
// fans out one change notification per swept spot. Reserved spots are
// untouched: once claimed, a spot's clock stops mattering.
func (s *Service) ExpireDue(ctx context.Context) (int, error) {
	const op = "service.lifecycle.ExpireDue"

	swept, err := s.store.ExpireDue(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	for _, spot := range swept {
		s.afterTransition(ctx, spot.ID, domain.ChangeExpired)
	}

	return len(swept), nil
}

func (s *Service) afterTransition(ctx context.Context, spotID uuid.UUID, change domain.ChangeKind) {
	if s.cache != nil {
		_ = s.cache.InvalidateSpot(ctx, spotID.String())
	}

	if s.pub != nil {
		_ = s.pub.PublishSpotChanged(ctx, spotID, change)
	}
}

func (s *Service) translateStoreErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrSpotNotFound
	case errors.Is(err, repository.ErrOwnSpot):
		return ErrCannotReserveOwnSpot
	case errors.Is(err, repository.ErrSpotExpired):
		return ErrSpotExpired
	case errors.Is(err, repository.ErrConflict):
		return ErrConflict
	case errors.Is(err, repository.ErrNotOwner):
		return ErrNotOwner
	case errors.Is(err, repository.ErrInvalidTransition):
		return ErrInvalidTransition
	default:
		return err
	}
}
