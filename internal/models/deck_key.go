package models

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"solitaire-go/internal/cipher/solitaire"
)

// DeckKey is a named starting deck ordering. Two parties holding the same
// sequence can read each other's messages.
type DeckKey struct {
	ID        int64     `json:"-"`
	PublicID  string    `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	Name      string    `json:"name"`
	Sequence  []int     `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`
}

// Deck returns a fresh Deck in the key's starting order. Every call returns a
// new, independently owned deck.
func (k *DeckKey) Deck() (*solitaire.Deck, error) {
	return solitaire.NewDeckFromSequence(k.Sequence)
}

// CreateDeckKey stores the ordering of deck under name for ownerID.
func CreateDeckKey(db *sql.DB, ownerID int64, name string, deck *solitaire.Deck) (*DeckKey, error) {
	publicID := uuid.NewString()
	res, err := db.Exec(
		`INSERT INTO deck_keys(public_id, owner_id, name, sequence) VALUES (?, ?, ?, ?)`,
		publicID, ownerID, name, deck.String(),
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return getDeckKey(db, `WHERE id = ?`, id)
}

// GetDeckKey looks a key up by public id and checks ownership.
func GetDeckKey(db *sql.DB, publicID string, ownerID int64) (*DeckKey, error) {
	k, err := getDeckKey(db, `WHERE public_id = ?`, publicID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrDeckKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	if k.OwnerID != ownerID {
		return nil, notOwned(ErrDeckKeyNotFound)
	}
	return k, nil
}

func ListDeckKeys(db *sql.DB, ownerID int64, limit int64) ([]DeckKey, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	rows, err := db.Query(
		`SELECT id, public_id, owner_id, name, sequence, created_at FROM deck_keys
		 WHERE owner_id = ? ORDER BY id DESC LIMIT ?`,
		ownerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []DeckKey{}
	for rows.Next() {
		k, err := scanDeckKey(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *k)
	}
	return out, rows.Err()
}

func DeleteDeckKey(db *sql.DB, publicID string, ownerID int64) error {
	res, err := db.Exec(`DELETE FROM deck_keys WHERE public_id = ? AND owner_id = ?`, publicID, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDeckKeyNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func getDeckKey(db *sql.DB, where string, arg any) (*DeckKey, error) {
	k, err := scanDeckKey(db.QueryRow(
		`SELECT id, public_id, owner_id, name, sequence, created_at FROM deck_keys `+where, arg,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return k, err
}

func scanDeckKey(row rowScanner) (*DeckKey, error) {
	var k DeckKey
	var seq string
	if err := row.Scan(&k.ID, &k.PublicID, &k.OwnerID, &k.Name, &seq, &k.CreatedAt); err != nil {
		return nil, err
	}
	d, err := solitaire.ParseDeckString(seq)
	if err != nil {
		return nil, err
	}
	k.Sequence = d.Values()
	return &k, nil
}
