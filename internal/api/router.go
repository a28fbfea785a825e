package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"chatline/internal/auth"
	"chatline/internal/chat"
	"chatline/internal/config"
	"chatline/internal/friend"
	"chatline/internal/message"
	"chatline/internal/realtime"
	"chatline/internal/user"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Verifier *auth.Verifier
	Hub      *realtime.Hub
	Message  *message.Handler
	Chat     *chat.Handler
	Friend   *friend.Handler
	User     *user.Handler
}

// NewRouter wires the HTTP surface: health check, the websocket
// endpoint and the authenticated REST groups.
func NewRouter(cfg *config.Config, h Handlers) *gin.Engine {
	if cfg.Env == config.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.HTTP.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok", "online": h.Hub.Online()})
	})

	r.GET("/ws", func(ctx *gin.Context) {
		realtime.ServeWS(h.Hub, h.Verifier, ctx.Writer, ctx.Request)
	})

	api := r.Group("/api/v1", auth.Middleware(h.Verifier))
	h.Message.Register(api.Group("/message"))
	h.Chat.Register(api.Group("/chat"))
	h.Friend.Register(api.Group("/friend"))
	h.User.Register(api.Group("/user"))

	return r
}
