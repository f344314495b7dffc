package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/arcade/internal/config"
	"github.com/playmatatu/arcade/internal/game"
)

// GetConfig returns the game settings a client needs to render and play
func GetConfig(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		keys := make([]string, 0, 6)
		for k := range game.DefaultKeyMap() {
			keys = append(keys, k)
		}
		c.JSON(http.StatusOK, gin.H{
			"court":         cfg.Court(),
			"ball_speed":    cfg.BallSpeed,
			"initial_score": cfg.InitialScore,
			"frame_rate":    cfg.FrameRate,
			"keys":          keys,
		})
	}
}
