package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"solitaire-go/internal/cipher/solitaire"
	"solitaire-go/internal/config"
	"solitaire-go/internal/models"
	"solitaire-go/internal/tracing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

type cipherRequest struct {
	DeckID   string `json:"deck_id"`
	Sequence []int  `json:"sequence"`
	Text     string `json:"text"`
}

type cipherResponse struct {
	Mode    models.Mode `json:"mode"`
	Letters int         `json:"letters"`
	Output  string      `json:"output"`
}

// resolveDeck builds a fresh deck from either a stored key or an inline
// sequence. The returned deck belongs to the caller alone.
func resolveDeck(db *sql.DB, userID int64, deckID string, sequence []int) (*solitaire.Deck, error) {
	deckID = strings.TrimSpace(deckID)
	switch {
	case deckID != "" && sequence != nil:
		return nil, models.ErrAmbiguousKey
	case deckID != "":
		k, err := models.GetDeckKey(db, deckID, userID)
		if err != nil {
			return nil, err
		}
		return k.Deck()
	case sequence != nil:
		return solitaire.NewDeckFromSequence(sequence)
	}
	return nil, models.ErrMissingKey
}

// runCipher applies mode to text using d, advancing d by one key per letter.
func runCipher(ctx context.Context, mode models.Mode, d *solitaire.Deck, text string, maxLetters int) (string, error) {
	letters := solitaire.Letters(text)
	if maxLetters > 0 && len(letters) > maxLetters {
		return "", models.ErrMessageTooLong
	}

	_, span := tracing.StartSpan(ctx, "cipher."+string(mode),
		attribute.Int("cipher.letters", len(letters)),
		attribute.Int("cipher.input_bytes", len(text)),
	)
	var (
		out string
		err error
	)
	switch mode {
	case models.ModeEncrypt:
		out, err = solitaire.Encrypt(d, letters)
	case models.ModeDecrypt:
		out, err = solitaire.Decrypt(d, letters)
	default:
		err = models.ErrInvalidMode
	}
	tracing.EndSpan(span, err)
	return out, err
}

// CipherHandler serves one-shot encryption or decryption. Every request gets
// its own deck in the key's starting state.
func CipherHandler(db *sql.DB, cfg config.Config, mode models.Mode) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}
		var req cipherRequest
		if err := bindJSON(c, &req); err != nil {
			writeAPIError(c, err)
			return
		}
		d, err := resolveDeck(db, userID, req.DeckID, req.Sequence)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		out, err := runCipher(c.Request.Context(), mode, d, req.Text, cfg.MaxMessageLetters)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, cipherResponse{Mode: mode, Letters: len(out), Output: out})
	}
}

// sessionSaveAttempts bounds reload-and-retry when another writer advanced
// the same session first.
const sessionSaveAttempts = 3

// ProcessSessionMessage runs text through the session's live deck and
// persists the advanced deck. Each attempt restores its own deck from the
// stored state, so concurrent writers never share one.
func ProcessSessionMessage(ctx context.Context, db *sql.DB, cfg config.Config, sessionID string, userID int64, text string) (*models.Session, string, error) {
	for attempt := 0; attempt < sessionSaveAttempts; attempt++ {
		s, err := models.GetSession(db, sessionID, userID)
		if err != nil {
			return nil, "", err
		}
		d, err := s.Deck()
		if err != nil {
			return nil, "", err
		}
		out, err := runCipher(ctx, s.Mode, d, text, cfg.MaxMessageLetters)
		if err != nil {
			return nil, "", err
		}
		saved, err := models.SaveSessionState(db, s, d, solitaire.Letters(text), out)
		if errors.Is(err, models.ErrSessionConflict) {
			continue
		}
		if err != nil {
			return nil, "", err
		}
		return saved, out, nil
	}
	return nil, "", models.ErrSessionConflict
}
