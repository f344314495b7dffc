package game

import "errors"

var (
	ErrInvalidCourt   = errors.New("invalid court")
	ErrInvalidOptions = errors.New("invalid simulation options")

	// ErrNoSurface means the host could not provide a drawing surface. It is a
	// startup failure; the game never appears.
	ErrNoSurface = errors.New("no drawing surface available")

	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session closed")
	ErrInvalidSeat     = errors.New("invalid seat")
)
