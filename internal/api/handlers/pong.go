package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/arcade/internal/auth"
	"github.com/playmatatu/arcade/internal/game"
	"github.com/playmatatu/arcade/internal/logger"
	"go.uber.org/zap"
)

// CreatePongSession starts a waiting session and hands out one seat token per
// paddle plus a host token that drives both.
func CreatePongSession(mgr *game.SessionManager, issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := mgr.CreateSession()
		if err != nil {
			logger.Named("api").Error("create session failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
			return
		}

		seats := gin.H{}
		for name, seat := range map[string]int{"left": 0, "right": 1, "host": game.HostSeat} {
			tok, err := issuer.Issue(s.Token, seat)
			if err != nil {
				logger.Named("api").Error("issue seat token failed", zap.String("token", s.Token), zap.Error(err))
				mgr.StopSession(s.Token)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
				return
			}
			seats[name] = tok
		}

		c.JSON(http.StatusCreated, gin.H{
			"id":     s.ID,
			"token":  s.Token,
			"court":  s.Court,
			"status": s.GetStatus(),
			"seats":  seats,
			"ws_url": "/api/v1/pong/" + s.Token + "/ws",
		})
	}
}

// GetPongSession returns the latest snapshot of a local session, or the
// registry entry when the session lives on another instance.
func GetPongSession(mgr *game.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")

		s, err := mgr.GetSession(token)
		if err == nil {
			c.JSON(http.StatusOK, s.State())
			return
		}

		rec, err := mgr.LookupRecord(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, game.ErrSessionNotFound) {
				logger.Named("api").Warn("session registry lookup failed", zap.String("token", token), zap.Error(err))
			}
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"remote": true, "session": rec})
	}
}

// StopPongSession cancels a session.
func StopPongSession(mgr *game.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := mgr.StopSession(c.Param("token")); err != nil {
			if errors.Is(err, game.ErrSessionNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not stop session"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// ListPongSessions returns recorded sessions, newest first.
func ListPongSessions(mgr *game.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		rows, err := mgr.RecentSessions(c.Request.Context(), limit)
		if err != nil {
			logger.Named("api").Error("list sessions failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list sessions"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"active":   mgr.ActiveCount(),
			"sessions": rows,
		})
	}
}
