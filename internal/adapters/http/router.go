package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/adapters/flights"
	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/adapters/signal"
	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/app"
	"github.com/Ssteier2016/HANDLEPHONE-sub000/internal/config"
)

func SetupRouter(ctx context.Context, cfg *config.Config, relay *app.Relay, board *flights.Client) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("HandlephoneSessions", store))

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	auth := &AuthHandlers{Allow: relay.Allow}
	api.POST("/register", auth.Register)
	api.POST("/login", auth.Login)

	api.GET("/flights", func(c *gin.Context) {
		list, err := board.Board(c.Request.Context())
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("flight board unavailable")
			c.JSON(http.StatusBadGateway, gin.H{"error": "flight board unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"flights": list})
	})

	ctrl := signal.NewWSController(relay, cfg.ReadLimit)
	api.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Msg("ws endpoint hit")
		ctrl.HandleWS(ctx, c)
	})

	return r
}
