package query

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curbline/curbline/internal/domain"
	"github.com/curbline/curbline/internal/repository/memory"
)

func seedSpot(t *testing.T, store *memory.Store, mutate func(*domain.Spot)) domain.Spot {
	t.Helper()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	spot := domain.Spot{
		ID:               uuid.New(),
		OwnerID:          "owner-1",
		Address:          "10 Main St",
		City:             "Springfield",
		Lat:              40.0,
		Lng:              -74.0,
		LocationVerified: true,
		PriceCents:       500,
		Category:         domain.CategoryStreet,
		AvailableAt:      now.Add(10 * time.Minute),
		DurationMin:      30,
		ExpiresAt:        now.Add(40 * time.Minute),
		Status:           domain.SpotAvailable,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if mutate != nil {
		mutate(&spot)
	}

	require.NoError(t, store.CreateSpot(context.Background(), &spot))
	return spot
}

func TestGetSpot(t *testing.T) {
	store := memory.NewStore()
	svc := New(store, nil, Config{})

	want := seedSpot(t, store, nil)

	got, err := svc.GetSpot(context.Background(), want.ID)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Address, got.Address)
}

func TestGetSpotNotFound(t *testing.T) {
	svc := New(memory.NewStore(), nil, Config{})

	_, err := svc.GetSpot(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSpotNotFound)
}

func TestListAvailable(t *testing.T) {
	store := memory.NewStore()
	svc := New(store, nil, Config{})
	ctx := context.Background()

	cheap := seedSpot(t, store, func(s *domain.Spot) { s.PriceCents = 300 })
	seedSpot(t, store, func(s *domain.Spot) { s.PriceCents = 1500 })
	seedSpot(t, store, func(s *domain.Spot) {
		s.City = "Shelbyville"
		s.Status = domain.SpotReserved
		s.ReservedBy = "buyer-1"
	})

	spots, err := svc.ListAvailable(ctx, domain.SpotFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, spots, 2, "reserved spots never appear in the listing")

	spots, err = svc.ListAvailable(ctx, domain.SpotFilter{MaxPriceCents: 1000}, 0, 0)
	require.NoError(t, err)
	require.Len(t, spots, 1)
	assert.Equal(t, cheap.ID, spots[0].ID)

	spots, err = svc.ListAvailable(ctx, domain.SpotFilter{City: "springfield"}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, spots, 2, "city match is case-insensitive")
}

func TestListAvailablePagination(t *testing.T) {
	store := memory.NewStore()
	svc := New(store, nil, Config{DefaultPage: 2, MaxPage: 2})
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		offset := time.Duration(i) * time.Minute
		seedSpot(t, store, func(s *domain.Spot) { s.AvailableAt = base.Add(offset) })
	}

	page1, err := svc.ListAvailable(ctx, domain.SpotFilter{}, 2, 0)
	require.NoError(t, err)
	require.Len(t, page1, 2)

	page2, err := svc.ListAvailable(ctx, domain.SpotFilter{}, 2, 2)
	require.NoError(t, err)
	require.Len(t, page2, 2)

	assert.NotEqual(t, page1[0].ID, page2[0].ID)
	assert.True(t, page1[1].AvailableAt.Before(page2[0].AvailableAt) ||
		page1[1].AvailableAt.Equal(page2[0].AvailableAt))

	// Requests above the cap are clamped, not rejected.
	clamped, err := svc.ListAvailable(ctx, domain.SpotFilter{}, 1000, 0)
	require.NoError(t, err)
	assert.Len(t, clamped, 2)
}

func TestSnapshotAvailable(t *testing.T) {
	store := memory.NewStore()
	svc := New(store, nil, Config{DefaultPage: 2, MaxPage: 2})
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	want := make(map[uuid.UUID]bool)
	for i := 0; i < 5; i++ {
		offset := time.Duration(i) * time.Minute
		spot := seedSpot(t, store, func(s *domain.Spot) { s.AvailableAt = base.Add(offset) })
		want[spot.ID] = true
	}

	// The whole matching set, beyond any single page.
	spots, err := svc.SnapshotAvailable(ctx, domain.SpotFilter{})
	require.NoError(t, err)
	require.Len(t, spots, 5)
	for _, s := range spots {
		assert.True(t, want[s.ID])
	}
}

func TestSnapshotAvailableFiltered(t *testing.T) {
	store := memory.NewStore()
	svc := New(store, nil, Config{MaxPage: 2})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		seedSpot(t, store, func(s *domain.Spot) { s.PriceCents = 300 })
	}
	seedSpot(t, store, func(s *domain.Spot) { s.PriceCents = 1500 })

	spots, err := svc.SnapshotAvailable(ctx, domain.SpotFilter{MaxPriceCents: 1000})
	require.NoError(t, err)
	assert.Len(t, spots, 3)
}

func TestListByUser(t *testing.T) {
	store := memory.NewStore()
	svc := New(store, nil, Config{})

	mine := seedSpot(t, store, func(s *domain.Spot) { s.OwnerID = "u1" })
	held := seedSpot(t, store, func(s *domain.Spot) {
		s.OwnerID = "u2"
		s.Status = domain.SpotReserved
		s.ReservedBy = "u1"
	})
	seedSpot(t, store, func(s *domain.Spot) { s.OwnerID = "u3" })

	posted, reserved, err := svc.ListByUser(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, posted, 1)
	assert.Equal(t, mine.ID, posted[0].ID)

	require.Len(t, reserved, 1)
	assert.Equal(t, held.ID, reserved[0].ID)
}

func TestSpotHistory(t *testing.T) {
	store := memory.NewStore()
	svc := New(store, nil, Config{})
	ctx := context.Background()

	spot := seedSpot(t, store, nil)

	hist, err := svc.SpotHistory(ctx, spot.ID)
	require.NoError(t, err)
	assert.Equal(t, spot.ID, hist.Spot.ID)
	assert.Nil(t, hist.Handoff, "no handoff before completion")

	now := spot.AvailableAt
	_, err = store.ReserveSpot(ctx, spot.ID, "buyer-1", now)
	require.NoError(t, err)
	_, err = store.CompleteSpot(ctx, spot.ID, "owner-1", 125, now.Add(5*time.Minute))
	require.NoError(t, err)

	hist, err = svc.SpotHistory(ctx, spot.ID)
	require.NoError(t, err)
	require.NotNil(t, hist.Handoff)
	assert.Equal(t, 125, hist.Handoff.FeeCents)
	assert.Equal(t, domain.SpotCompleted, hist.Spot.Status)
}

func TestSpotHistoryNotFound(t *testing.T) {
	svc := New(memory.NewStore(), nil, Config{})

	_, err := svc.SpotHistory(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSpotNotFound)
}
