package solitaire

import "strings"

const alphabet = 26

func isLetter(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

func upper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - 'a' + 'A'
	}
	return r
}

// Letters returns the uppercase letters of s in order. Everything else,
// including spaces and digits, is dropped.
func Letters(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if isLetter(r) {
			sb.WriteRune(upper(r))
		}
	}
	return sb.String()
}

// Encrypt adds one keystream value to each letter of plaintext, mod 26.
// Non-letters are dropped and the result is uppercase.
func Encrypt(d *Deck, plaintext string) (string, error) {
	return transform(d, plaintext, func(pos, key int) int {
		sum := pos + key
		if sum > alphabet {
			sum -= alphabet
		}
		return sum
	})
}

// Decrypt inverts Encrypt when d starts from the same state as the deck used
// to encrypt.
func Decrypt(d *Deck, ciphertext string) (string, error) {
	return transform(d, ciphertext, func(pos, key int) int {
		if pos <= key {
			return pos + alphabet - key
		}
		return pos - key
	})
}

func transform(d *Deck, text string, combine func(pos, key int) int) (string, error) {
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		if !isLetter(r) {
			continue
		}
		key, err := d.NextKey()
		if err != nil {
			return "", err
		}
		pos := int(upper(r)-'A') + 1
		sb.WriteByte(byte('A' + combine(pos, key) - 1))
	}
	return sb.String(), nil
}
