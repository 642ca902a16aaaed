package handlers

import (
	"database/sql"
	"net/http"

	"solitaire-go/internal/config"
	"solitaire-go/internal/middleware"
	"solitaire-go/internal/tracing"
	ws "solitaire-go/pkg/websocket"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// NewRouter assembles the HTTP API. hubs may be nil when realtime is disabled.
func NewRouter(db *sql.DB, cfg config.Config, hubs func() (*ws.Hub, bool)) *gin.Engine {
	SetWebSocketOriginPolicy(cfg.AppEnv == "development", cfg.DevWebSocketsAllowAll, cfg.WSAllowedOrigins)
	SetHubProvider(hubs)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(otelgin.Middleware(tracing.ServiceName))
	r.Use(middleware.DevCORS(cfg))
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	api := r.Group("/api")
	api.Use(middleware.LimitBody(cfg.MaxBodyBytes))
	RegisterAuthRoutes(api, db, cfg)

	protected := api.Group("")
	protected.Use(middleware.RequireAuth(cfg))
	RegisterDeckRoutes(protected, db)
	RegisterCipherRoutes(protected, db, cfg)

	if hubs != nil {
		r.GET("/ws", WebSocketHandler(hubs, db, cfg))
	}
	return r
}
