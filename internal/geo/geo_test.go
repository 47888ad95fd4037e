package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMeters_SamePoint(t *testing.T) {
	t.Parallel()

	d := DistanceMeters(37.7749, -122.4194, 37.7749, -122.4194)
	assert.Equal(t, 0.0, d)
}

func TestDistanceMeters_KnownDistance(t *testing.T) {
	t.Parallel()

	// SF Ferry Building to SF City Hall, roughly 2.6 km.
	d := DistanceMeters(37.7955, -122.3937, 37.7793, -122.4193)
	assert.InDelta(t, 2830, d, 100)
}

func TestDistanceMeters_OneDegreeLatitude(t *testing.T) {
	t.Parallel()

	// One degree of latitude is ~111.2 km on a spherical earth.
	d := DistanceMeters(0, 0, 1, 0)
	assert.InDelta(t, 111195, d, 10)
}

func TestDistanceMeters_Symmetric(t *testing.T) {
	t.Parallel()

	a := DistanceMeters(37.7749, -122.4194, 40.7128, -74.0060)
	b := DistanceMeters(40.7128, -74.0060, 37.7749, -122.4194)
	assert.Equal(t, a, b)
}

func TestDistanceMeters_SmallOffsets(t *testing.T) {
	t.Parallel()

	// ~61 m north of the reference point: 61 / 111195 degrees of latitude.
	lat := 37.7749
	lng := -122.4194
	d := DistanceMeters(lat, lng, lat+61.0/111195.0, lng)
	assert.InDelta(t, 61.0, d, 0.01)

	if math.Signbit(d) {
		t.Fatalf("distance must be non-negative, got %f", d)
	}
}
