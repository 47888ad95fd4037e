package postgres

import (
	"context"
	"time"

	"github.com/curbline/curbline/internal/domain"
	"github.com/curbline/curbline/internal/repository"
	"github.com/google/uuid"
)

// Store satisfies repository.SpotStore by delegating to its sub-repos.
var _ repository.SpotStore = (*Store)(nil)

func (s *Store) CreateSpot(ctx context.Context, spot *domain.Spot) error {
	return s.Spots().CreateSpot(ctx, spot)
}

func (s *Store) GetSpot(ctx context.Context, id uuid.UUID) (*domain.Spot, error) {
	return s.Query().GetSpot(ctx, id)
}

func (s *Store) ListAvailable(ctx context.Context, f domain.SpotFilter, limit, offset int) ([]domain.Spot, error) {
	return s.Query().ListAvailable(ctx, f, limit, offset)
}

func (s *Store) ListByUser(ctx context.Context, userID string) (posted, reserved []domain.Spot, err error) {
	return s.Query().ListByUser(ctx, userID)
}

func (s *Store) ReserveSpot(ctx context.Context, id uuid.UUID, callerID string, now time.Time) (*domain.Spot, error) {
	return s.Spots().ReserveSpot(ctx, id, callerID, now)
}

func (s *Store) CompleteSpot(ctx context.Context, id uuid.UUID, callerID string, feeCents int, now time.Time) (*domain.Spot, error) {
	return s.Spots().CompleteSpot(ctx, id, callerID, feeCents, now)
}

func (s *Store) CancelSpot(ctx context.Context, id uuid.UUID, callerID string, now time.Time) (*domain.Spot, error) {
	return s.Spots().CancelSpot(ctx, id, callerID, now)
}

func (s *Store) ExpireDue(ctx context.Context, now time.Time) ([]domain.Spot, error) {
	return s.Spots().ExpireDue(ctx, now)
}

func (s *Store) GetHandoffBySpot(ctx context.Context, spotID uuid.UUID) (*domain.Handoff, error) {
	return s.Query().GetHandoffBySpot(ctx, spotID)
}
