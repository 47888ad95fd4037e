// Package memory is an in-process SpotStore used by tests. A single
// mutex stands in for the storage layer's atomic conditional write:
// each transition checks the expected status and applies the update
// while holding the lock, so races classify exactly like the durable
// implementation.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/curbline/curbline/internal/domain"
	"github.com/curbline/curbline/internal/repository"
	"github.com/google/uuid"
)

var _ repository.SpotStore = (*Store)(nil)

type Store struct {
	mu            sync.Mutex
	spots         map[uuid.UUID]*domain.Spot
	handoffs      map[uuid.UUID][]domain.Handoff
	conversations map[uuid.UUID][]domain.Conversation
}

func NewStore() *Store {
	return &Store{
		spots:         make(map[uuid.UUID]*domain.Spot),
		handoffs:      make(map[uuid.UUID][]domain.Handoff),
		conversations: make(map[uuid.UUID][]domain.Conversation),
	}
}

func (s *Store) CreateSpot(ctx context.Context, spot *domain.Spot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.spots[spot.ID]; ok {
		return repository.ErrConflict
	}

	cp := *spot
	s.spots[spot.ID] = &cp

	return nil
}

func (s *Store) GetSpot(ctx context.Context, id uuid.UUID) (*domain.Spot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	spot, ok := s.spots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	cp := *spot
	return &cp, nil
}

func (s *Store) ListAvailable(ctx context.Context, f domain.SpotFilter, limit, offset int) ([]domain.Spot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f.Status = domain.SpotAvailable

	var out []domain.Spot
	for _, spot := range s.spots {
		if f.Matches(*spot) {
			out = append(out, *spot)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].AvailableAt.Before(out[j].AvailableAt)
	})

	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}

	return out, nil
}

func (s *Store) ListByUser(ctx context.Context, userID string) (posted, reserved []domain.Spot, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, spot := range s.spots {
		if spot.OwnerID == userID {
			posted = append(posted, *spot)
		}
		if spot.ReservedBy == userID {
			reserved = append(reserved, *spot)
		}
	}

	sort.Slice(posted, func(i, j int) bool {
		return posted[i].CreatedAt.After(posted[j].CreatedAt)
	})
	sort.Slice(reserved, func(i, j int) bool {
		return reserved[i].CreatedAt.After(reserved[j].CreatedAt)
	})

	return posted, reserved, nil
}

func (s *Store) ReserveSpot(ctx context.Context, id uuid.UUID, callerID string, now time.Time) (*domain.Spot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	spot, ok := s.spots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	switch {
	case spot.OwnerID == callerID:
		return nil, repository.ErrOwnSpot
	case spot.Status == domain.SpotAvailable && !spot.ExpiresAt.After(now):
		return nil, repository.ErrSpotExpired
	case spot.Status != domain.SpotAvailable:
		return nil, repository.ErrConflict
	}

	spot.Status = domain.SpotReserved
	spot.ReservedBy = callerID
	t := now
	spot.ReservedAt = &t
	spot.UpdatedAt = now

	s.conversations[id] = append(s.conversations[id], domain.Conversation{
		ID:         uuid.New(),
		SpotID:     id,
		OwnerID:    spot.OwnerID,
		ReserverID: callerID,
		CreatedAt:  now,
	})

	cp := *spot
	return &cp, nil
}

func (s *Store) CompleteSpot(ctx context.Context, id uuid.UUID, callerID string, feeCents int, now time.Time) (*domain.Spot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	spot, ok := s.spots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	if spot.OwnerID != callerID {
		return nil, repository.ErrNotOwner
	}
	if spot.Status != domain.SpotReserved {
		return nil, repository.ErrInvalidTransition
	}

	spot.Status = domain.SpotCompleted
	t := now
	spot.CompletedAt = &t
	spot.UpdatedAt = now
	spot.HandoffCount++

	s.handoffs[id] = append(s.handoffs[id], domain.Handoff{
		ID:         uuid.New(),
		SpotID:     id,
		OwnerID:    spot.OwnerID,
		ReserverID: spot.ReservedBy,
		PriceCents: spot.PriceCents,
		FeeCents:   feeCents,
		CreatedAt:  now,
	})

	cp := *spot
	return &cp, nil
}

func (s *Store) CancelSpot(ctx context.Context, id uuid.UUID, callerID string, now time.Time) (*domain.Spot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	spot, ok := s.spots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	if spot.OwnerID != callerID {
		return nil, repository.ErrNotOwner
	}
	if spot.Status != domain.SpotAvailable || !spot.ExpiresAt.After(now) {
		return nil, repository.ErrInvalidTransition
	}

	spot.Status = domain.SpotCancelled
	spot.UpdatedAt = now

	cp := *spot
	return &cp, nil
}

func (s *Store) ExpireDue(ctx context.Context, now time.Time) ([]domain.Spot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Spot
	for _, spot := range s.spots {
		if spot.Status == domain.SpotAvailable && !spot.ExpiresAt.After(now) {
			spot.Status = domain.SpotExpired
			spot.UpdatedAt = now
			out = append(out, *spot)
		}
	}

	return out, nil
}

func (s *Store) GetHandoffBySpot(ctx context.Context, spotID uuid.UUID) (*domain.Handoff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hs := s.handoffs[spotID]
	if len(hs) == 0 {
		return nil, repository.ErrNotFound
	}

	cp := hs[len(hs)-1]
	return &cp, nil
}

// Conversations returns the conversation stubs created for a spot, in
// creation order.
func (s *Store) Conversations(spotID uuid.UUID) []domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]domain.Conversation(nil), s.conversations[spotID]...)
}
