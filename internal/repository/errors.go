package repository

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrSpotExpired       = errors.New("spot expired")
	ErrOwnSpot           = errors.New("cannot reserve own spot")
	ErrNotOwner          = errors.New("not owner")
	ErrInvalidTransition = errors.New("invalid transition")
)
