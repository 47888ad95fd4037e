package httpgin

import (
	"time"

	"github.com/curbline/curbline/internal/domain"
)

type GPSFixInput struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	AccuracyM float64 `json:"accuracy_m"`
	TakenAt   string  `json:"taken_at"`
}

func (f GPSFixInput) toDomain() domain.GPSFix {
	taken, _ := parseRFC3339(f.TakenAt)
	return domain.GPSFix{
		Lat:       f.Lat,
		Lng:       f.Lng,
		AccuracyM: f.AccuracyM,
		TakenAt:   taken,
	}
}

type VerifyLocationRequest struct {
	Address string       `json:"address" binding:"required"`
	City    string       `json:"city" binding:"required"`
	Fix     *GPSFixInput `json:"fix"`
	// FixError carries the client's acquisition failure instead of a
	// fix: permission_denied, position_unavailable or timeout.
	FixError string `json:"fix_error,omitempty"`
}

type VerifyLocationResponse struct {
	Verified  bool               `json:"verified"`
	DistanceM float64            `json:"distance_m"`
	Resolved  domain.Coordinates `json:"resolved"`
}

type CreateSpotRequest struct {
	OwnerID     string       `json:"owner_id" binding:"required"`
	Address     string       `json:"address" binding:"required"`
	City        string       `json:"city" binding:"required"`
	Description string       `json:"description"`
	PriceCents  int          `json:"price_cents" binding:"required,gt=0"`
	Category    string       `json:"category" binding:"required"`
	AvailableAt string       `json:"available_at" binding:"required"`
	DurationMin int          `json:"duration_min" binding:"required,gt=0"`
	Fix         *GPSFixInput `json:"fix" binding:"required"`
}

type CreateSpotResponse struct {
	SpotID string `json:"spot_id"`
}

type SpotActionRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type UserSpotsResponse struct {
	Posted   []domain.Spot `json:"posted"`
	Reserved []domain.Spot `json:"reserved"`
}

type ErrorResponse struct {
	Error     string  `json:"error"`
	DistanceM float64 `json:"distance_m,omitempty"`
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
