package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/arcade/internal/config"
	"github.com/playmatatu/arcade/internal/game"
	"github.com/playmatatu/arcade/internal/logger"
	"go.uber.org/zap"
)

func IndexPage(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{"Title": "arcade"})
}

func PongPage(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		court := cfg.Court()
		c.HTML(http.StatusOK, "pong.html", gin.H{
			"CourtWidth":  court.Width(),
			"CourtHeight": court.Height(),
		})
	}
}

func ExperimentsPage(mgr *game.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := mgr.RecentSessions(c.Request.Context(), 10)
		if err != nil {
			logger.Named("api").Warn("recent sessions unavailable", zap.Error(err))
		}
		c.HTML(http.StatusOK, "experiments.html", gin.H{
			"ActiveSessions": mgr.ActiveCount(),
			"Sessions":       rows,
		})
	}
}
