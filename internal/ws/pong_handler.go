package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playmatatu/arcade/internal/auth"
	"github.com/playmatatu/arcade/internal/game"
	"go.uber.org/zap"
)

// HandleWebSocket attaches a client to a Pong session. The seat query
// parameter is a seat token issued when the session was created.
func HandleWebSocket(mgr *game.SessionManager, issuer *auth.Issuer, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")
		seatToken := c.Query("seat")
		if seatToken == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "seat token required"})
			return
		}

		claims, err := issuer.ParseFor(seatToken, token)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid seat token"})
			return
		}

		s, err := mgr.GetSession(token)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		if st := s.GetStatus(); st == game.StatusCompleted || st == game.StatusCancelled {
			c.JSON(http.StatusGone, gin.H{"error": "session has ended"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.log.Warn("upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			hub:     hub,
			conn:    conn,
			session: s,
			token:   token,
			seat:    claims.Seat,
			send:    make(chan []byte, sendBuffer),
			ready:   make(chan struct{}),
		}
		if !hub.addClient(client) {
			conn.Close()
			return
		}

		go client.writePump()

		if err := s.Connect(client.seat); err != nil {
			msg := "could not join session"
			if errors.Is(err, game.ErrSessionClosed) {
				msg = "session has ended"
			}
			client.sendError(msg)
			hub.removeClient(client)
			return
		}

		hub.sendTo(client, OutMessage{Type: "joined", Data: gin.H{
			"seat":  client.seat,
			"state": s.State(),
		}})

		go client.readPump()
	}
}

// readPump reads key presses until the connection drops.
func (c *Client) readPump() {
	defer func() {
		c.session.Disconnect(c.seat)
		c.hub.removeClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Warn("unexpected close", zap.String("token", c.token), zap.Int("seat", c.seat), zap.Error(err))
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("invalid message")
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg WSMessage) {
	switch msg.Type {
	case "key":
		var ev game.KeyEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			c.sendError("invalid key data")
			return
		}
		// Unmapped keys are ignored; a full queue drops the press.
		c.session.HandleKey(c.seat, ev)

	case "get_state":
		c.hub.sendTo(c, OutMessage{Type: "state", Data: c.session.State()})

	default:
		c.sendError("unknown message type")
	}
}
