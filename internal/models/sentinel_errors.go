package models

import (
	"errors"
	"fmt"

	"solitaire-go/internal/cipher/solitaire"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrUsernameTaken    = errors.New("username already taken")
	ErrInvalidJSON      = errors.New("invalid json")
	ErrInvalidMode      = errors.New("invalid mode")
	ErrMessageTooLong   = errors.New("message too long")
	ErrDeckKeyNotFound  = errors.New("deck key not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionConflict  = errors.New("session state conflict")
	ErrNotOwner         = errors.New("not owner")
	ErrMissingKey       = errors.New("deck_id or sequence required")
	ErrAmbiguousKey     = errors.New("deck_id and sequence are mutually exclusive")
	ErrSessionStateLost = errors.New("persisted session state missing")

	// ErrInvalidDeck is the cipher's own sentinel so callers can match either.
	ErrInvalidDeck = solitaire.ErrInvalidDeck
)

// notOwned reports a row that exists but belongs to someone else. It matches
// both notFound and ErrNotOwner, so APIs can answer 404 without revealing
// the row while logs and tests still see the real cause.
func notOwned(notFound error) error {
	return fmt.Errorf("%w: %w", notFound, ErrNotOwner)
}
