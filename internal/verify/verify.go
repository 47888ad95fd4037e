// Package verify gates spot creation on physical presence: the
// poster's GPS fix must lie within a fixed tolerance of the geocoded
// street address.
package verify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/curbline/curbline/internal/domain"
	"github.com/curbline/curbline/internal/geo"
	"github.com/curbline/curbline/internal/geocode"
)

// DefaultToleranceMeters is 200 feet.
const DefaultToleranceMeters = 61.0

var (
	ErrAddressNotFound    = errors.New("address not found")
	ErrGeocodeUnavailable = errors.New("geocoder unavailable")

	// Fix-acquisition failures reported by the client device. The
	// verifier never acquires a fix itself; it only names the taxonomy
	// so callers surface a consistent error.
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrFixTimeout          = errors.New("location fix timed out")
)

// FixError maps a client-reported acquisition failure code to its
// sentinel. Unknown codes fall back to ErrPositionUnavailable.
func FixError(code string) error {
	switch code {
	case "permission_denied":
		return ErrPermissionDenied
	case "position_unavailable":
		return ErrPositionUnavailable
	case "timeout":
		return ErrFixTimeout
	}
	return ErrPositionUnavailable
}

// Geocoder resolves a street address to a single best-match coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, address, city string) (domain.Coordinates, error)
}

type Config struct {
	ToleranceMeters float64
	Timeout         time.Duration
}

type Verifier struct {
	geocoder Geocoder
	cfg      Config
}

func New(geocoder Geocoder, cfg Config) *Verifier {
	if cfg.ToleranceMeters <= 0 {
		cfg.ToleranceMeters = DefaultToleranceMeters
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Verifier{
		geocoder: geocoder,
		cfg:      cfg,
	}
}

// Result reports the outcome of a proximity check. Resolved holds the
// geocoded coordinates; on success these become the spot's stored
// location, normalizing away GPS noise.
type Result struct {
	Verified       bool
	DistanceMeters float64
	Resolved       domain.Coordinates
}

// Verify resolves the address and checks the claimed fix against it.
// A single geocoder attempt with a bounded timeout; the caller decides
// whether to re-invoke.
//
// Returns:
//   - Result: verified iff the measured distance is within tolerance;
//     the distance is always populated for user-facing feedback.
//   - error: ErrAddressNotFound if the geocoder matched nothing,
//     ErrGeocodeUnavailable on any transport failure or timeout.
func (v *Verifier) Verify(ctx context.Context, address, city string, fix domain.GPSFix) (Result, error) {
	const op = "verify.Verifier.Verify"

	ctx, cancel := context.WithTimeout(ctx, v.cfg.Timeout)
	defer cancel()

	resolved, err := v.geocoder.Geocode(ctx, address, city)
	if err != nil {
		if errors.Is(err, geocode.ErrNoResults) {
			return Result{}, fmt.Errorf("%s:%w", op, ErrAddressNotFound)
		}

		return Result{}, fmt.Errorf("%s:%w: %w", op, ErrGeocodeUnavailable, err)
	}

	dist := geo.DistanceMeters(fix.Lat, fix.Lng, resolved.Lat, resolved.Lng)

	return Result{
		Verified:       dist <= v.cfg.ToleranceMeters,
		DistanceMeters: dist,
		Resolved:       resolved,
	}, nil
}
