package solitaire

import "errors"

var (
	// ErrInvalidDeck is returned when key material is not a permutation of 1..28.
	ErrInvalidDeck = errors.New("invalid deck")

	// ErrInternalInvariant signals a defect in a permutation step. It is never
	// caused by caller input.
	ErrInternalInvariant = errors.New("internal invariant violation")
)
