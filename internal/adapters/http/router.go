// Package http wires the gin router: identity cookie, room lifecycle API
// and the sync websocket endpoint.
package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sketchparty/server/internal/adapters/ws"
	"github.com/sketchparty/server/internal/config"
	"github.com/sketchparty/server/internal/rooms"
)

// IdentityMiddleware resolves the caller to a (userId, username) pair. Real
// authentication lives outside this service; new callers get a guest
// identity pinned to a session cookie so reconnects keep the same user id.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		uid, _ := sess.Get("user_id").(string)
		username, _ := sess.Get("username").(string)
		if uid == "" {
			uid = uuid.NewString()
			if username == "" {
				username = "guest"
			}
			sess.Set("user_id", uid)
			sess.Set("username", username)
			if err := sess.Save(); err != nil {
				log.Error().Err(err).Str("module", "adapters.http").Msg("save identity session")
			}
		}
		c.Set("user_id", uid)
		c.Set("username", username)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, svc *rooms.Service, ctl *ws.Controller, health gin.HandlerFunc) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("SketchSessions", store))
	r.Use(IdentityMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")
	api.GET("/health", health)

	h := &roomHandlers{svc: svc}
	api.POST("/rooms", h.create)
	api.POST("/rooms/join", h.join)
	api.GET("/rooms/history", h.history)
	api.GET("/rooms/:roomId", h.get)
	api.PUT("/identity", updateIdentity)

	api.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("user", c.GetString("user_id")).Msg("ws endpoint hit")
		ctl.HandleWS(ctx, c)
	})

	return r
}
