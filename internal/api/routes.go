package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/arcade/internal/api/handlers"
	"github.com/playmatatu/arcade/internal/auth"
	"github.com/playmatatu/arcade/internal/config"
	"github.com/playmatatu/arcade/internal/game"
	"github.com/playmatatu/arcade/internal/logger"
	"github.com/playmatatu/arcade/internal/middleware"
	"github.com/playmatatu/arcade/internal/web"
	"github.com/playmatatu/arcade/internal/ws"
)

// SetupRoutes configures pages, static assets and the API.
func SetupRoutes(router *gin.Engine, mgr *game.SessionManager, hub *ws.Hub, issuer *auth.Issuer, cfg *config.Config) error {
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		logger.Named("dev").Info("no-cache headers enabled for all routes")
	}

	tmpl, err := web.Templates()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	router.SetHTMLTemplate(tmpl)
	router.StaticFS("/assets", web.Assets())

	router.GET("/", handlers.IndexPage)
	router.GET("/pong", handlers.PongPage(cfg))
	router.GET("/experiments", handlers.ExperimentsPage(mgr))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(mgr))
		v1.GET("/config", handlers.GetConfig(cfg))

		pong := v1.Group("/pong")
		{
			pong.POST("", handlers.CreatePongSession(mgr, issuer))
			pong.GET("", handlers.ListPongSessions(mgr))
			pong.GET("/:token", handlers.GetPongSession(mgr))
			pong.DELETE("/:token", handlers.StopPongSession(mgr))
			pong.GET("/:token/ws", middleware.WebSocketCORSCheck(cfg), handlers.HandlePongWebSocket(mgr, issuer, hub))
		}
	}
	return nil
}
