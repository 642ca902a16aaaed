package handlers

import (
	"database/sql"
	"net/http"
	"strings"
	"unicode/utf8"

	"solitaire-go/internal/cipher/solitaire"
	"solitaire-go/internal/models"

	"github.com/gin-gonic/gin"
)

// deckSource is the shuffle source for server-generated keys. Tests swap it
// for a seeded generator.
var deckSource solitaire.Source = &solitaire.CryptoSource{}

type createDeckRequest struct {
	Name     string `json:"name"`
	Sequence []int  `json:"sequence"`
}

func CreateDeckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}
		var req createDeckRequest
		if err := bindJSON(c, &req); err != nil {
			writeAPIError(c, err)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if n := utf8.RuneCountInString(req.Name); n < 1 || n > 64 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name must be 1-64 characters"})
			return
		}

		var deck *solitaire.Deck
		if req.Sequence == nil {
			deck = solitaire.NewShuffledDeck(deckSource)
		} else {
			d, err := solitaire.NewDeckFromSequence(req.Sequence)
			if err != nil {
				writeAPIError(c, err)
				return
			}
			deck = d
		}

		k, err := models.CreateDeckKey(db, userID, req.Name, deck)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"deck": k})
	}
}

func ListDecksHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}
		keys, err := models.ListDeckKeys(db, userID, 200)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"decks": keys})
	}
}

func GetDeckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}
		k, err := models.GetDeckKey(db, c.Param("id"), userID)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deck": k})
	}
}

func DeleteDeckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}
		if err := models.DeleteDeckKey(db, c.Param("id"), userID); err != nil {
			writeAPIError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
