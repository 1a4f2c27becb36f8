package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vineet-vishwakarma/Chat-App/internal/auth"
	"github.com/vineet-vishwakarma/Chat-App/internal/config"
	"github.com/vineet-vishwakarma/Chat-App/internal/metrics"
	"github.com/vineet-vishwakarma/Chat-App/internal/mw"
	"github.com/vineet-vishwakarma/Chat-App/internal/session"
	"github.com/vineet-vishwakarma/Chat-App/internal/ws"
)

// Deps are the collaborators the router wires into handlers. Lookup
// resolves authenticated users and is normally the UserService.
type Deps struct {
	Handler  *Handler
	Lookup   auth.UserLookup
	Sessions *session.Service
	Limiter  *mw.RL
}

// SetupRouter builds the Gin engine: middleware, REST API, websocket
// endpoint and ops routes.
func SetupRouter(cfg config.Config, d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.CORS(cfg.Env, cfg.CORSOrigin))
	if d.Limiter != nil {
		r.Use(d.Limiter.Middleware())
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := d.Handler
	authed := auth.AuthMiddleware(cfg.JWTSecret, d.Lookup)
	api := r.Group("/api/v1")

	users := api.Group("/users")
	users.POST("/register", h.Register)
	users.POST("/login", h.Login)
	users.POST("/refresh-token", h.RefreshToken)
	users.GET("/get-all-users", h.ListUsers)
	users.POST("/logout", authed, h.Logout)
	users.POST("/change-password", authed, h.ChangePassword)
	users.GET("/get-current-user", authed, h.CurrentUser)

	messages := api.Group("/messages", authed)
	messages.POST("/get-all-messages", h.ListMessages)
	messages.POST("/translate-message", h.TranslateMessage)

	rooms := api.Group("/rooms", authed)
	rooms.GET("/:peerId", h.DescribeRoom)

	// The websocket is not authenticated; identities come from event payloads.
	r.GET("/ws", ws.Serve(d.Sessions))
	return r
}
