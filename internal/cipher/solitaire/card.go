package solitaire

import (
	"fmt"
	"strconv"
	"strings"
)

// Card is a single deck value. 1..26 are letter cards, JokerA and JokerB are
// the two jokers.
type Card int

const (
	JokerA Card = 27
	JokerB Card = 28

	// DeckSize is the number of cards in every deck.
	DeckSize = 28
)

func (c Card) IsJoker() bool {
	return c == JokerA || c == JokerB
}

func (c Card) valid() bool {
	return c >= 1 && c <= JokerB
}

// Count is the value used when counting cards off the deck: both jokers count 27.
func (c Card) Count() int {
	if c == JokerB {
		return int(JokerA)
	}
	return int(c)
}

func (c Card) String() string {
	switch c {
	case JokerA:
		return "JA"
	case JokerB:
		return "JB"
	default:
		return strconv.Itoa(int(c))
	}
}

// ParseCard accepts either a numeral ("1".."28") or a joker token ("JA", "JB").
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	switch s {
	case "JA":
		return JokerA, nil
	case "JB":
		return JokerB, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: bad card %q", ErrInvalidDeck, s)
	}
	c := Card(v)
	if !c.valid() {
		return 0, fmt.Errorf("%w: card %d out of range", ErrInvalidDeck, v)
	}
	return c, nil
}
