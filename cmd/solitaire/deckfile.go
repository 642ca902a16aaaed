package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"solitaire-go/internal/cipher/solitaire"

	"gopkg.in/yaml.v2"
)

// deckFile is the YAML form of key material:
//
//	name: alice-bob
//	deck: [1, 2, 3, ..., JA, JB]
type deckFile struct {
	Name string        `yaml:"name"`
	Deck []interface{} `yaml:"deck"`
}

// loadDeck reads key material from path. Files ending in .yaml or .yml use
// deckFile; anything else is whitespace/comma separated cards.
func loadDeck(path string) (*solitaire.Deck, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAMLDeck(b)
	}
	return solitaire.ParseDeck(bytes.NewReader(b))
}

func parseYAMLDeck(b []byte) (*solitaire.Deck, error) {
	var f deckFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", solitaire.ErrInvalidDeck, err)
	}
	values := make([]int, 0, len(f.Deck))
	for _, v := range f.Deck {
		c, err := solitaire.ParseCard(fmt.Sprint(v))
		if err != nil {
			return nil, err
		}
		values = append(values, int(c))
	}
	return solitaire.NewDeckFromSequence(values)
}

// marshalYAMLDeck renders d in the deckFile format.
func marshalYAMLDeck(name string, d *solitaire.Deck) ([]byte, error) {
	f := deckFile{Name: name}
	for _, v := range d.Values() {
		f.Deck = append(f.Deck, v)
	}
	return yaml.Marshal(f)
}
