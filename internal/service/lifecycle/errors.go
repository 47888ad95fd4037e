package lifecycle

import "errors"

var (
	// Validation failures: the caller's input is malformed and a retry
	// without changes can never succeed.
	ErrInvalidAddress      = errors.New("address and city are required")
	ErrInvalidPrice        = errors.New("price out of bounds")
	ErrInvalidTiming       = errors.New("availability time out of bounds")
	ErrInvalidCategory     = errors.New("unknown spot category")
	ErrLocationNotVerified = errors.New("location not verified")

	// Authorization failures.
	ErrCannotReserveOwnSpot = errors.New("cannot reserve own spot")
	ErrNotOwner             = errors.New("caller is not the owner")

	// Concurrency: the spot was valid when the caller looked but a
	// concurrent transition was accepted first. Retrying only makes
	// sense against freshly re-read state.
	ErrConflict = errors.New("conflicting transition")

	ErrSpotExpired       = errors.New("spot expired")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrSpotNotFound      = errors.New("spot not found")
)
