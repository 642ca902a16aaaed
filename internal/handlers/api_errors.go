package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"solitaire-go/internal/cipher/solitaire"
	"solitaire-go/internal/models"

	"github.com/gin-gonic/gin"
)

func writeAPIError(c *gin.Context, err error) {
	if err == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if errors.Is(err, models.ErrNotOwner) {
		// Answered as not found below; only the log shows the row exists.
		log.Printf("cross-owner access: path=%s err=%v", c.Request.URL.Path, err)
	}

	switch {
	case errors.Is(err, models.ErrDeckKeyNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "deck not found"})
		return
	case errors.Is(err, models.ErrSessionNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	case errors.Is(err, models.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	// Safe typed validation / conflict errors (do NOT echo raw errors, except
	// for deck validation whose detail is derived from caller input only).
	switch {
	case errors.Is(err, models.ErrSessionStateLost):
		// Checked before ErrInvalidDeck: a corrupt stored deck is our fault.
		log.Printf("session state unreadable: %v", err)
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "session state unavailable; start a new session"})
	case errors.Is(err, solitaire.ErrInvalidDeck):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidJSON):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
	case errors.Is(err, models.ErrInvalidMode):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "mode must be encrypt or decrypt"})
	case errors.Is(err, models.ErrMissingKey):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "deck_id or sequence required"})
	case errors.Is(err, models.ErrAmbiguousKey):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "give either deck_id or sequence, not both"})
	case errors.Is(err, models.ErrMessageTooLong):
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "message too long"})
	case errors.Is(err, models.ErrSessionConflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "session was updated concurrently; retry"})
	default:
		// ErrInternalInvariant lands here too: it is a defect, never user input.
		log.Printf("internal error: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
