package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"

	"solitaire-go/internal/auth"
	"solitaire-go/internal/config"
	"solitaire-go/internal/middleware"
	"solitaire-go/internal/models"
	ws "solitaire-go/pkg/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			// Non-browser clients (no Origin) are allowed.
			return true
		}
		p := currentOriginPolicy()
		if p.dev && (p.devAllowAll || middleware.IsLoopbackOrigin(origin)) {
			return true
		}
		return p.allowed[origin]
	},
}

type originPolicy struct {
	dev         bool
	devAllowAll bool
	allowed     map[string]bool
}

var (
	originMu sync.RWMutex
	origins  = originPolicy{allowed: map[string]bool{}}
)

// SetWebSocketOriginPolicy is called once at startup from config.
func SetWebSocketOriginPolicy(isDev bool, allowAllDev bool, allowed []string) {
	p := originPolicy{dev: isDev, devAllowAll: allowAllDev, allowed: map[string]bool{}}
	for _, o := range allowed {
		if o = strings.TrimSpace(o); o != "" {
			p.allowed[o] = true
		}
	}
	originMu.Lock()
	origins = p
	originMu.Unlock()
}

func currentOriginPolicy() originPolicy {
	originMu.RLock()
	defer originMu.RUnlock()
	return origins
}

// WebSocketHandler upgrades an authenticated connection. The client starts
// in the default room and joins a session room with join_session.
func WebSocketHandler(hubProvider func() (*ws.Hub, bool), db *sql.DB, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := middleware.TokenFromRequest(c, cfg.WSAllowQueryTokens)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		claims, err := auth.ParseAndValidateToken(token, cfg)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		// Check preconditions before the upgrade so we can still answer in HTTP.
		room := ws.DefaultRoom
		if sid := strings.TrimSpace(c.Query("session")); sid != "" {
			if _, err := models.GetSession(db, sid, claims.UserID); err != nil {
				writeAPIError(c, err)
				return
			}
			room = sessionRoom(sid)
		}
		hub, ok := hubProvider()
		if !ok {
			log.Printf("WebSocketHandler hubProvider returned nil: user_id=%d", claims.UserID)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocketHandler upgrade failed: path=%s remote=%s origin=%q err=%v",
				c.Request.URL.Path, c.ClientIP(), c.Request.Header.Get("Origin"), err,
			)
			return
		}

		client := ws.NewClient(conn, hub, room, claims.UserID)
		hub.Register(client)

		go client.WritePump()
		go client.ReadPump(func(msg []byte) {
			handleWSMessage(context.Background(), hub, client, db, cfg, msg)
		})

		_ = client.SendEnvelope("connected", gin.H{"user_id": client.UserID, "room": room})
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type wsCipherPayload struct {
	cipherRequest
	SessionID string `json:"session_id"`
}

func handleWSMessage(ctx context.Context, hub *ws.Hub, client *ws.Client, db *sql.DB, cfg config.Config, msg []byte) {
	var in inboundMessage
	if err := json.Unmarshal(msg, &in); err != nil {
		_ = client.SendEnvelope("error", gin.H{"error": "invalid json"})
		return
	}
	var p wsCipherPayload
	if len(in.Payload) > 0 {
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			_ = client.SendEnvelope("error", gin.H{"error": "invalid payload"})
			return
		}
	}

	switch in.Type {
	case "join_session":
		if _, err := models.GetSession(db, p.SessionID, client.UserID); err != nil {
			sendWSError(client, err)
			return
		}
		hub.Join(client, sessionRoom(p.SessionID))
		_ = client.SendEnvelope("joined_session", gin.H{"session_id": p.SessionID})
	case "encrypt", "decrypt":
		d, err := resolveDeck(db, client.UserID, p.DeckID, p.Sequence)
		if err != nil {
			sendWSError(client, err)
			return
		}
		out, err := runCipher(ctx, models.Mode(in.Type), d, p.Text, cfg.MaxMessageLetters)
		if err != nil {
			sendWSError(client, err)
			return
		}
		_ = client.SendEnvelope("result", cipherResponse{Mode: models.Mode(in.Type), Letters: len(out), Output: out})
	case "session_message":
		s, out, err := ProcessSessionMessage(ctx, db, cfg, p.SessionID, client.UserID, p.Text)
		if err != nil {
			sendWSError(client, err)
			return
		}
		res := sessionResult{SessionID: s.PublicID, Mode: s.Mode, Seq: s.Version, Output: out}
		_ = client.SendEnvelope("result", res)
		hub.BroadcastExcept(sessionRoom(s.PublicID), "session_result", res, client)
	default:
		_ = client.SendEnvelope("error", gin.H{"error": "unknown message type"})
	}
}

// sendWSError maps err to the same safe messages the HTTP API uses.
func sendWSError(client *ws.Client, err error) {
	msg := "internal error"
	switch {
	case errors.Is(err, models.ErrSessionNotFound), errors.Is(err, models.ErrDeckKeyNotFound):
		msg = "not found"
	case errors.Is(err, models.ErrSessionStateLost):
		msg = "session state unavailable"
	case errors.Is(err, models.ErrInvalidDeck):
		msg = err.Error()
	case errors.Is(err, models.ErrMissingKey), errors.Is(err, models.ErrAmbiguousKey),
		errors.Is(err, models.ErrMessageTooLong), errors.Is(err, models.ErrSessionConflict):
		msg = err.Error()
	default:
		log.Printf("ws internal error: user_id=%d err=%v", client.UserID, err)
	}
	_ = client.SendEnvelope("error", gin.H{"error": msg})
}
