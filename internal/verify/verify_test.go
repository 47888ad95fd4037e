package verify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/curbline/curbline/internal/domain"
	"github.com/curbline/curbline/internal/geocode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGeocoder struct {
	coords domain.Coordinates
	err    error
}

func (s stubGeocoder) Geocode(ctx context.Context, address, city string) (domain.Coordinates, error) {
	if s.err != nil {
		return domain.Coordinates{}, s.err
	}
	return s.coords, nil
}

// fixAtDistance returns a GPS fix the given number of meters due north
// of the reference coordinate.
func fixAtDistance(ref domain.Coordinates, meters float64) domain.GPSFix {
	return domain.GPSFix{
		Lat:     ref.Lat + meters/111195.0,
		Lng:     ref.Lng,
		TakenAt: time.Now(),
	}
}

func TestVerify_WithinTolerance(t *testing.T) {
	t.Parallel()

	ref := domain.Coordinates{Lat: 37.7749, Lng: -122.4194}
	v := New(stubGeocoder{coords: ref}, Config{})

	res, err := v.Verify(context.Background(), "123 Main St", "San Francisco", fixAtDistance(ref, 30))
	require.NoError(t, err)
	assert.True(t, res.Verified)
	assert.InDelta(t, 30, res.DistanceMeters, 0.1)
	assert.Equal(t, ref, res.Resolved)
}

func TestVerify_Boundary(t *testing.T) {
	t.Parallel()

	ref := domain.Coordinates{Lat: 37.7749, Lng: -122.4194}
	v := New(stubGeocoder{coords: ref}, Config{})

	at, err := v.Verify(context.Background(), "123 Main St", "San Francisco", fixAtDistance(ref, 61.0))
	require.NoError(t, err)
	assert.True(t, at.Verified, "exactly 61.0 m must verify")

	over, err := v.Verify(context.Background(), "123 Main St", "San Francisco", fixAtDistance(ref, 61.1))
	require.NoError(t, err)
	assert.False(t, over.Verified, "61.1 m must not verify")
	assert.InDelta(t, 61.1, over.DistanceMeters, 0.05)
}

func TestVerify_AddressNotFound(t *testing.T) {
	t.Parallel()

	v := New(stubGeocoder{err: geocode.ErrNoResults}, Config{})

	_, err := v.Verify(context.Background(), "nowhere", "nowhere", domain.GPSFix{})
	assert.True(t, errors.Is(err, ErrAddressNotFound))
}

func TestVerify_GeocoderDown(t *testing.T) {
	t.Parallel()

	v := New(stubGeocoder{err: errors.New("connection refused")}, Config{})

	_, err := v.Verify(context.Background(), "123 Main St", "San Francisco", domain.GPSFix{})
	assert.True(t, errors.Is(err, ErrGeocodeUnavailable))
}

func TestVerify_ResolvedCoordsNotRawFix(t *testing.T) {
	t.Parallel()

	ref := domain.Coordinates{Lat: 37.7749, Lng: -122.4194}
	v := New(stubGeocoder{coords: ref}, Config{})

	fix := fixAtDistance(ref, 10)
	res, err := v.Verify(context.Background(), "123 Main St", "San Francisco", fix)
	require.NoError(t, err)
	assert.Equal(t, ref, res.Resolved)
	assert.NotEqual(t, fix.Lat, res.Resolved.Lat)
}

func TestFixError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ErrPermissionDenied, FixError("permission_denied"))
	assert.Equal(t, ErrPositionUnavailable, FixError("position_unavailable"))
	assert.Equal(t, ErrFixTimeout, FixError("timeout"))
	assert.Equal(t, ErrPositionUnavailable, FixError("wat"))
}
