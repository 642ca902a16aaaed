package models

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"solitaire-go/internal/cipher/solitaire"
)

type Mode string

const (
	ModeEncrypt Mode = "encrypt"
	ModeDecrypt Mode = "decrypt"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeEncrypt, ModeDecrypt:
		return Mode(s), nil
	}
	return "", ErrInvalidMode
}

// Session is a long-lived cipher stream. Its deck state carries across
// messages; State is the deck after the last processed message.
type Session struct {
	ID        int64     `json:"-"`
	PublicID  string    `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	DeckKeyID int64     `json:"-"`
	Mode      Mode      `json:"mode"`
	State     string    `json:"-"`
	Letters   int64     `json:"letters"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Deck restores the session's live deck. The caller owns the returned deck
// until it saves it back with SaveSessionState.
func (s *Session) Deck() (*solitaire.Deck, error) {
	d, err := solitaire.ParseDeckString(s.State)
	if err != nil {
		return nil, errors.Join(ErrSessionStateLost, err)
	}
	return d, nil
}

func CreateSession(db *sql.DB, ownerID int64, key *DeckKey, mode Mode) (*Session, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	d, err := key.Deck()
	if err != nil {
		return nil, err
	}
	res, err := db.Exec(
		`INSERT INTO cipher_sessions(public_id, owner_id, deck_key_id, mode, state) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), ownerID, key.ID, string(mode), d.String(),
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return getSession(db, `WHERE id = ?`, id)
}

func GetSession(db *sql.DB, publicID string, ownerID int64) (*Session, error) {
	s, err := getSession(db, `WHERE public_id = ?`, publicID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if s.OwnerID != ownerID {
		return nil, notOwned(ErrSessionNotFound)
	}
	return s, nil
}

// SaveSessionState stores the deck after a message and appends the message
// to the session history. It fails with ErrSessionConflict if another writer
// advanced the session since s was loaded; the caller must then reload and
// redo the work from the newer state.
func SaveSessionState(db *sql.DB, s *Session, d *solitaire.Deck, input, output string) (*Session, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(
		`UPDATE cipher_sessions SET state = ?, letters = letters + ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND version = ?`,
		d.String(), len(output), s.ID, s.Version,
	)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrSessionConflict
	}
	if _, err := tx.Exec(
		`INSERT INTO session_messages(session_id, seq, input, output) VALUES (?, ?, ?, ?)`,
		s.ID, s.Version+1, input, output,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return getSession(db, `WHERE id = ?`, s.ID)
}

func getSession(db *sql.DB, where string, arg any) (*Session, error) {
	var s Session
	var mode string
	err := db.QueryRow(
		`SELECT id, public_id, owner_id, deck_key_id, mode, state, letters, version, created_at, updated_at
		 FROM cipher_sessions `+where, arg,
	).Scan(&s.ID, &s.PublicID, &s.OwnerID, &s.DeckKeyID, &mode, &s.State, &s.Letters, &s.Version, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.Mode = Mode(mode)
	return &s, nil
}

type SessionMessage struct {
	Seq       int64     `json:"seq"`
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	CreatedAt time.Time `json:"created_at"`
}

func ListSessionMessages(db *sql.DB, sessionID int64, limit int64) ([]SessionMessage, error) {
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	rows, err := db.Query(
		`SELECT seq, input, output, created_at FROM session_messages WHERE session_id = ? ORDER BY seq ASC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []SessionMessage{}
	for rows.Next() {
		var m SessionMessage
		if err := rows.Scan(&m.Seq, &m.Input, &m.Output, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
