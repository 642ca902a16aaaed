package handlers

import (
	"database/sql"

	"solitaire-go/internal/config"

	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes wires account endpoints. /auth/me needs a token but
// reads it itself so the group stays public.
func RegisterAuthRoutes(rg *gin.RouterGroup, db *sql.DB, cfg config.Config) {
	rg.POST("/auth/register", RegisterHandler(db, cfg))
	rg.POST("/auth/login", LoginHandler(db, cfg))
	rg.GET("/auth/me", MeHandler(db, cfg))
	rg.POST("/auth/logout", LogoutHandler(cfg))
}

// RegisterDeckRoutes wires key material endpoints.
func RegisterDeckRoutes(rg *gin.RouterGroup, db *sql.DB) {
	rg.GET("/decks", ListDecksHandler(db))
	rg.POST("/decks", CreateDeckHandler(db))
	rg.GET("/decks/:id", GetDeckHandler(db))
	rg.DELETE("/decks/:id", DeleteDeckHandler(db))
}

// RegisterCipherRoutes wires one-shot and session-based encryption.
func RegisterCipherRoutes(rg *gin.RouterGroup, db *sql.DB, cfg config.Config) {
	rg.POST("/cipher/encrypt", CipherHandler(db, cfg, "encrypt"))
	rg.POST("/cipher/decrypt", CipherHandler(db, cfg, "decrypt"))

	rg.POST("/sessions", CreateSessionHandler(db))
	rg.GET("/sessions/:id", GetSessionHandler(db))
	rg.POST("/sessions/:id/messages", SessionMessageHandler(db, cfg))
	rg.GET("/sessions/:id/messages", ListSessionMessagesHandler(db))
}
