package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type SpotStatus string

const (
	SpotAvailable SpotStatus = "available"
	SpotReserved  SpotStatus = "reserved"
	SpotCompleted SpotStatus = "completed"
	SpotCancelled SpotStatus = "cancelled"
	SpotExpired   SpotStatus = "expired"
)

// Terminal reports whether the status admits no further transitions.
func (s SpotStatus) Terminal() bool {
	switch s {
	case SpotCompleted, SpotCancelled, SpotExpired:
		return true
	}
	return false
}

type SpotCategory string

const (
	CategoryStreet   SpotCategory = "street"
	CategoryGarage   SpotCategory = "garage"
	CategoryLot      SpotCategory = "lot"
	CategoryDriveway SpotCategory = "driveway"
)

func ValidCategory(c SpotCategory) bool {
	switch c {
	case CategoryStreet, CategoryGarage, CategoryLot, CategoryDriveway:
		return true
	}
	return false
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GPSFix is a device location reading supplied by the poster's client.
type GPSFix struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	AccuracyM float64   `json:"accuracy_m"`
	TakenAt   time.Time `json:"taken_at"`
}

type Spot struct {
	ID               uuid.UUID    `json:"id"`
	OwnerID          string       `json:"owner_id"`
	Address          string       `json:"address"`
	City             string       `json:"city"`
	Description      string       `json:"description,omitempty"`
	Lat              float64      `json:"lat"`
	Lng              float64      `json:"lng"`
	LocationVerified bool         `json:"location_verified"`
	PriceCents       int          `json:"price_cents"`
	Category         SpotCategory `json:"category"`
	AvailableAt      time.Time    `json:"available_at"`
	DurationMin      int          `json:"duration_min"`
	ExpiresAt        time.Time    `json:"expires_at"`
	Status           SpotStatus   `json:"status"`
	ReservedBy       string       `json:"reserved_by,omitempty"`
	HandoffCount     int          `json:"handoff_count"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
	ReservedAt       *time.Time   `json:"reserved_at,omitempty"`
	CompletedAt      *time.Time   `json:"completed_at,omitempty"`
}

// SpotDraft carries the poster's input to spot creation. The resolved
// coordinates and verification flag come from the location verifier,
// never from the client.
type SpotDraft struct {
	OwnerID     string
	Address     string
	City        string
	Description string
	PriceCents  int
	Category    SpotCategory
	AvailableAt time.Time
	DurationMin int
}

// VerifiedLocation is the verifier's output attached to a draft at
// creation time. Coordinates are the geocoder's resolution of the
// street address, not the raw GPS fix.
type VerifiedLocation struct {
	Coordinates
	Verified bool
}

// SpotFilter is a predicate over spots, used both for listing queries
// and for change-feed subscriptions.
type SpotFilter struct {
	Status        SpotStatus   `json:"status,omitempty"`
	City          string       `json:"city,omitempty"`
	Category      SpotCategory `json:"category,omitempty"`
	MaxPriceCents int          `json:"max_price_cents,omitempty"`
}

// IsZero reports whether the filter constrains nothing.
func (f SpotFilter) IsZero() bool {
	return f == SpotFilter{}
}

func (f SpotFilter) Matches(s Spot) bool {
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	if f.City != "" && !strings.EqualFold(s.City, f.City) {
		return false
	}
	if f.Category != "" && s.Category != f.Category {
		return false
	}
	if f.MaxPriceCents > 0 && s.PriceCents > f.MaxPriceCents {
		return false
	}
	return true
}

// Handoff is the record written when an owner marks a reserved spot
// completed. The fee is recorded for bookkeeping only; no settlement
// happens here.
type Handoff struct {
	ID         uuid.UUID `json:"id"`
	SpotID     uuid.UUID `json:"spot_id"`
	OwnerID    string    `json:"owner_id"`
	ReserverID string    `json:"reserver_id"`
	PriceCents int       `json:"price_cents"`
	FeeCents   int       `json:"fee_cents"`
	CreatedAt  time.Time `json:"created_at"`
}

// Conversation is the message thread stub created when a reservation
// lands, keyed by (spot, owner, reserver). Message delivery itself is
// handled elsewhere.
type Conversation struct {
	ID         uuid.UUID `json:"id"`
	SpotID     uuid.UUID `json:"spot_id"`
	OwnerID    string    `json:"owner_id"`
	ReserverID string    `json:"reserver_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type EventType string

const (
	EventAdd    EventType = "add"
	EventUpdate EventType = "update"
	EventRemove EventType = "remove"
)

// SpotEvent is a change-feed entry delivered to subscribers.
type SpotEvent struct {
	Type EventType `json:"type"`
	Spot Spot      `json:"spot"`
}

// ChangeKind tags the mutation that produced a spot-changed message.
type ChangeKind string

const (
	ChangeCreated   ChangeKind = "created"
	ChangeReserved  ChangeKind = "reserved"
	ChangeCompleted ChangeKind = "completed"
	ChangeCancelled ChangeKind = "cancelled"
	ChangeExpired   ChangeKind = "expired"
)
