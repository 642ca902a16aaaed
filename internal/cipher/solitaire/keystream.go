package solitaire

import "fmt"

// MaxKeyAttempts bounds the joker-retry loop in NextKey. Reaching it means a
// step is broken; a valid deck never gets close.
const MaxKeyAttempts = 512

// runRound advances the deck by one full round of steps. Tests replace it to
// drive NextKey into states a correct round never produces.
var runRound = (*Deck).step

// candidate reads the card following the first Count() cards of the deck.
func (d *Deck) candidate() Card {
	return d.At(d.At(0).Count())
}

// NextKey advances the deck and returns the next keystream value in [1, 26].
// Candidates that land on a joker are discarded and the steps run again on
// the already-mutated deck.
func (d *Deck) NextKey() (int, error) {
	for attempt := 0; attempt < MaxKeyAttempts; attempt++ {
		if err := runRound(d); err != nil {
			return 0, err
		}
		if c := d.candidate(); !c.IsJoker() {
			return int(c), nil
		}
	}
	return 0, fmt.Errorf("%w: no letter card after %d rounds", ErrInternalInvariant, MaxKeyAttempts)
}

// Keystream returns the next n keys.
func (d *Deck) Keystream(n int) ([]int, error) {
	if n < 0 {
		return nil, fmt.Errorf("keystream: negative length %d", n)
	}
	keys := make([]int, n)
	for i := range keys {
		k, err := d.NextKey()
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}
	return keys, nil
}
