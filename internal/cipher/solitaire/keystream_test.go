package solitaire

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

func TestNextKeyIdentityDeck(t *testing.T) {
	d := mustDeck(t, identity())
	keys, err := d.Keystream(10)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{8, 16, 11, 8, 6, 25, 5, 1, 20, 7}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("Keystream(10) = %v, want %v", keys, want)
	}
}

func TestNextKeyRetriesJokerCandidate(t *testing.T) {
	// After one round on the identity deck the candidate is joker B, so the
	// first key needs a second round.
	d := mustDeck(t, identity())
	if err := d.step(); err != nil {
		t.Fatal(err)
	}
	if c := d.candidate(); c != JokerB {
		t.Fatalf("candidate after one round = %v, want JB", c)
	}

	d = mustDeck(t, identity())
	key, err := d.NextKey()
	if err != nil {
		t.Fatal(err)
	}
	if key != 8 {
		t.Errorf("NextKey() = %d, want 8", key)
	}
	want := seq(span(4, 26), []int{1, 27, 2, 3, 28})
	if got := d.Values(); !reflect.DeepEqual(got, want) {
		t.Errorf("deck after first key = %v, want %v", got, want)
	}
}

func TestNextKeyRange(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for trial := 0; trial < 2000; trial++ {
		d := NewShuffledDeck(rng)
		for i := 0; i < 20; i++ {
			rounds := 0
			for {
				rounds++
				if err := d.step(); err != nil {
					t.Fatal(err)
				}
				if !d.candidate().IsJoker() {
					break
				}
				if rounds > 50 {
					t.Fatalf("trial %d: %d rounds without a letter card", trial, rounds)
				}
			}
			key := int(d.candidate())
			if key < 1 || key > 26 {
				t.Fatalf("key %d out of range", key)
			}
		}
	}
}

func TestNextKeyMatchesStepsAndCandidate(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for trial := 0; trial < 500; trial++ {
		d := NewShuffledDeck(rng)
		manual := d.Clone()
		key, err := d.NextKey()
		if err != nil {
			t.Fatal(err)
		}
		if key < 1 || key > 26 {
			t.Fatalf("NextKey() = %d", key)
		}
		for {
			if err := manual.step(); err != nil {
				t.Fatal(err)
			}
			if c := manual.candidate(); !c.IsJoker() {
				if int(c) != key {
					t.Fatalf("manual key %d, NextKey %d", c, key)
				}
				break
			}
		}
		if !reflect.DeepEqual(manual.Values(), d.Values()) {
			t.Fatalf("deck states diverged")
		}
	}
}

func TestKeystreamNegative(t *testing.T) {
	d := mustDeck(t, identity())
	if _, err := d.Keystream(-1); err == nil {
		t.Errorf("expected error")
	}
	keys, err := d.Keystream(0)
	if err != nil || len(keys) != 0 {
		t.Errorf("Keystream(0) = %v, %v", keys, err)
	}
}

func TestNextKeyMissingJoker(t *testing.T) {
	d := mustDeck(t, identity())
	d.cards[26] = 1
	if _, err := d.NextKey(); !errors.Is(err, ErrInternalInvariant) {
		t.Errorf("expected ErrInternalInvariant, got %v", err)
	}
}

func TestNextKeyGivesUpAtAttemptCeiling(t *testing.T) {
	// A round that leaves the deck untouched keeps joker A under the top card
	// forever, so every candidate is rejected.
	rounds := 0
	runRound = func(d *Deck) error {
		rounds++
		return d.Validate()
	}
	t.Cleanup(func() { runRound = (*Deck).step })

	d := mustDeck(t, seq([]int{1, 27}, span(2, 26), []int{28}))
	before := d.Values()

	_, err := d.NextKey()
	if !errors.Is(err, ErrInternalInvariant) {
		t.Fatalf("NextKey err = %v, want ErrInternalInvariant", err)
	}
	if rounds != MaxKeyAttempts {
		t.Errorf("ran %d rounds, want %d", rounds, MaxKeyAttempts)
	}
	if !reflect.DeepEqual(d.Values(), before) {
		t.Errorf("deck changed: %v", d.Values())
	}
}
