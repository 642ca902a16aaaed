package solitaire

import (
	"fmt"
	"io"
	"strings"
	"unicode"
)

// Deck is the circular 28-card state of a cipher session. cards is addressed
// relative to front: position i in traversal order lives at (front+i) % DeckSize.
//
// A Deck is mutated in place by every step and must be owned by a single session.
type Deck struct {
	cards [DeckSize]Card
	front int
}

// NewDeckFromSequence builds a deck whose traversal order is values.
func NewDeckFromSequence(values []int) (*Deck, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: empty sequence", ErrInvalidDeck)
	}
	if len(values) != DeckSize {
		return nil, fmt.Errorf("%w: got %d cards, want %d", ErrInvalidDeck, len(values), DeckSize)
	}
	d := &Deck{}
	var seen [DeckSize + 1]bool
	for i, v := range values {
		c := Card(v)
		if !c.valid() {
			return nil, fmt.Errorf("%w: card %d at position %d out of range", ErrInvalidDeck, v, i)
		}
		if seen[c] {
			return nil, fmt.Errorf("%w: duplicate card %d at position %d", ErrInvalidDeck, v, i)
		}
		seen[c] = true
		d.cards[i] = c
	}
	return d, nil
}

// NewShuffledDeck returns a uniformly shuffled deck drawn from rng.
func NewShuffledDeck(rng Source) *Deck {
	d := &Deck{}
	for i := range d.cards {
		d.cards[i] = Card(i + 1)
	}
	// Fisher-Yates
	for i := DeckSize - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
	return d
}

// ParseDeck reads cards (numerals or JA/JB) separated by whitespace or commas.
func ParseDeck(r io.Reader) (*Deck, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read deck: %w", err)
	}
	return ParseDeckString(string(b))
}

// ParseDeckString is ParseDeck over an in-memory string, the form Deck.String produces.
func ParseDeckString(s string) (*Deck, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	values := make([]int, 0, len(fields))
	for _, tok := range fields {
		c, err := ParseCard(tok)
		if err != nil {
			return nil, err
		}
		values = append(values, int(c))
	}
	return NewDeckFromSequence(values)
}

// At returns the card at position i in traversal order.
func (d *Deck) At(i int) Card {
	return d.cards[d.slot(i)]
}

// Values returns the deck in traversal order. This is the exchangeable key material.
func (d *Deck) Values() []int {
	out := make([]int, DeckSize)
	for i := range out {
		out[i] = int(d.At(i))
	}
	return out
}

// Clone returns an independent copy. Sessions never share decks implicitly.
func (d *Deck) Clone() *Deck {
	cp := *d
	return &cp
}

func (d *Deck) String() string {
	var sb strings.Builder
	for i := 0; i < DeckSize; i++ {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%d", int(d.At(i)))
	}
	return sb.String()
}

func (d *Deck) slot(i int) int {
	return (d.front + i) % DeckSize
}

// position returns the traversal position of c.
func (d *Deck) position(c Card) (int, error) {
	for i := 0; i < DeckSize; i++ {
		if d.At(i) == c {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: card %s missing", ErrInternalInvariant, c)
}

// swapNext swaps the card at position i with its circular successor and
// returns the successor's position.
func (d *Deck) swapNext(i int) int {
	a, b := d.slot(i), d.slot(i+1)
	d.cards[a], d.cards[b] = d.cards[b], d.cards[a]
	return (i + 1) % DeckSize
}

// load replaces the deck contents with order and resets the anchor.
func (d *Deck) load(order *[DeckSize]Card) {
	d.cards = *order
	d.front = 0
}

// Validate reports ErrInternalInvariant unless the deck holds each of 1..28 once.
func (d *Deck) Validate() error {
	var seen [DeckSize + 1]bool
	for i, c := range d.cards {
		if !c.valid() || seen[c] {
			return fmt.Errorf("%w: slot %d holds %d", ErrInternalInvariant, i, int(c))
		}
		seen[c] = true
	}
	if d.front < 0 || d.front >= DeckSize {
		return fmt.Errorf("%w: anchor %d out of range", ErrInternalInvariant, d.front)
	}
	return nil
}
