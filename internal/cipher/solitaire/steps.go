package solitaire

import "fmt"

// JokerA moves joker A one position down the deck, wrapping from the last
// position to the first.
func (d *Deck) JokerA() error {
	p, err := d.position(JokerA)
	if err != nil {
		return err
	}
	d.swapNext(p)
	return nil
}

// JokerB moves joker B two positions down the deck as two single swaps.
func (d *Deck) JokerB() error {
	p, err := d.position(JokerB)
	if err != nil {
		return err
	}
	p = d.swapNext(p)
	d.swapNext(p)
	return nil
}

// jokers returns the traversal positions of the first and second joker.
func (d *Deck) jokers() (first, second int, err error) {
	first, second = -1, -1
	for i := 0; i < DeckSize; i++ {
		if !d.At(i).IsJoker() {
			continue
		}
		if first < 0 {
			first = i
			continue
		}
		second = i
		break
	}
	if second < 0 {
		return 0, 0, fmt.Errorf("%w: expected two jokers", ErrInternalInvariant)
	}
	return first, second, nil
}

// TripleCut swaps the cards above the first joker with the cards below the
// second joker. The jokers and everything between them stay in order.
func (d *Deck) TripleCut() error {
	fj, sj, err := d.jokers()
	if err != nil {
		return err
	}
	last := DeckSize - 1
	switch {
	case fj == 0 && sj == last:
		// nothing above or below
	case fj == 0:
		// The cards after sj become the top: a pure rotation.
		d.front = d.slot(sj + 1)
	case sj == last:
		d.front = d.slot(fj)
	default:
		var order [DeckSize]Card
		n := 0
		for i := sj + 1; i <= last; i++ {
			order[n] = d.At(i)
			n++
		}
		for i := fj; i <= sj; i++ {
			order[n] = d.At(i)
			n++
		}
		for i := 0; i < fj; i++ {
			order[n] = d.At(i)
			n++
		}
		d.load(&order)
	}
	return nil
}

// CountCut moves the top N cards to just above the bottom card, where N is the
// bottom card's count. A bottom joker counts 27, which leaves the deck as is.
func (d *Deck) CountCut() error {
	last := DeckSize - 1
	n := d.At(last).Count()
	if n == int(JokerA) {
		return nil
	}
	if n < 1 {
		return fmt.Errorf("%w: bottom card %d", ErrInternalInvariant, n)
	}
	var order [DeckSize]Card
	k := 0
	for i := n; i < last; i++ {
		order[k] = d.At(i)
		k++
	}
	for i := 0; i < n; i++ {
		order[k] = d.At(i)
		k++
	}
	order[last] = d.At(last)
	d.load(&order)
	return nil
}

// step runs the four permutation steps in their fixed order.
func (d *Deck) step() error {
	if err := d.JokerA(); err != nil {
		return err
	}
	if err := d.JokerB(); err != nil {
		return err
	}
	if err := d.TripleCut(); err != nil {
		return err
	}
	if err := d.CountCut(); err != nil {
		return err
	}
	return d.Validate()
}
