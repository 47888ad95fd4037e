package repository

import (
	"context"
	"time"

	"github.com/curbline/curbline/internal/domain"
	"github.com/google/uuid"
)

// SpotStore is the durable record of spots. Every state transition is
// a conditional write keyed on (id, expected status): the write lands
// only if the stored status still matches, which is what arbitrates
// races between reservers, owners and the expiration sweep. No method
// ever overwrites status unconditionally.
//
// Transition methods return these sentinels:
//   - ErrNotFound: no such spot.
//   - ErrConflict: the conditional write lost to a concurrent
//     transition (the spot was valid when the caller last looked).
//   - ErrSpotExpired: the spot's hard ceiling has passed.
//   - ErrOwnSpot: a poster tried to reserve their own spot.
//   - ErrNotOwner: a non-owner tried an owner-only transition.
//   - ErrInvalidTransition: the current status does not admit the
//     requested transition.
type SpotStore interface {
	CreateSpot(ctx context.Context, spot *domain.Spot) error
	GetSpot(ctx context.Context, id uuid.UUID) (*domain.Spot, error)
	ListAvailable(ctx context.Context, f domain.SpotFilter, limit, offset int) ([]domain.Spot, error)
	ListByUser(ctx context.Context, userID string) (posted, reserved []domain.Spot, err error)

	// ReserveSpot is the available -> reserved conditional write. On
	// success it also creates the conversation stub for the pair.
	ReserveSpot(ctx context.Context, id uuid.UUID, callerID string, now time.Time) (*domain.Spot, error)

	// CompleteSpot is the reserved -> completed conditional write,
	// owner-only. Increments the handoff counter exactly once and
	// records the handoff with the given fee.
	CompleteSpot(ctx context.Context, id uuid.UUID, callerID string, feeCents int, now time.Time) (*domain.Spot, error)

	// CancelSpot is the available -> cancelled conditional write,
	// owner-only, rejected once the spot has expired.
	CancelSpot(ctx context.Context, id uuid.UUID, callerID string, now time.Time) (*domain.Spot, error)

	// ExpireDue transitions every available spot whose ceiling has
	// passed to expired and returns the affected rows. A spot reserved
	// between scan and write is left alone.
	ExpireDue(ctx context.Context, now time.Time) ([]domain.Spot, error)

	GetHandoffBySpot(ctx context.Context, spotID uuid.UUID) (*domain.Handoff, error)
}
