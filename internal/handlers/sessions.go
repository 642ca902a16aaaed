package handlers

import (
	"database/sql"
	"net/http"

	"solitaire-go/internal/config"
	"solitaire-go/internal/models"

	"github.com/gin-gonic/gin"
)

type createSessionRequest struct {
	DeckID string `json:"deck_id"`
	Mode   string `json:"mode"`
}

type sessionMessageRequest struct {
	Text string `json:"text"`
}

func CreateSessionHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}
		var req createSessionRequest
		if err := bindJSON(c, &req); err != nil {
			writeAPIError(c, err)
			return
		}
		mode, err := models.ParseMode(req.Mode)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		if req.DeckID == "" {
			writeAPIError(c, models.ErrMissingKey)
			return
		}
		k, err := models.GetDeckKey(db, req.DeckID, userID)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		s, err := models.CreateSession(db, userID, k, mode)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"session": s, "deck_id": k.PublicID})
	}
}

func GetSessionHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}
		s, err := models.GetSession(db, c.Param("id"), userID)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"session": s})
	}
}

func SessionMessageHandler(db *sql.DB, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}
		var req sessionMessageRequest
		if err := bindJSON(c, &req); err != nil {
			writeAPIError(c, err)
			return
		}
		s, out, err := ProcessSessionMessage(c.Request.Context(), db, cfg, c.Param("id"), userID, req.Text)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		resp := sessionResult{SessionID: s.PublicID, Mode: s.Mode, Seq: s.Version, Output: out}
		broadcastSessionResult(resp)
		c.JSON(http.StatusOK, resp)
	}
}

func ListSessionMessagesHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}
		s, err := models.GetSession(db, c.Param("id"), userID)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		msgs, err := models.ListSessionMessages(db, s.ID, 500)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"messages": msgs})
	}
}
