package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/playmatatu/arcade/internal/auth"
	"github.com/playmatatu/arcade/internal/game"
	"github.com/playmatatu/arcade/internal/ws"
)

// HandlePongWebSocket handles real-time game communication
func HandlePongWebSocket(mgr *game.SessionManager, issuer *auth.Issuer, hub *ws.Hub) gin.HandlerFunc {
	return ws.HandleWebSocket(mgr, issuer, hub)
}
