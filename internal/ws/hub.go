package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/playmatatu/arcade/internal/game"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // origins are checked by middleware.WebSocketCORSCheck
	},
}

// Client is one websocket connection watching (and maybe playing) a session.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	session *game.Session
	token   string
	seat    int
	send    chan []byte
	ready   chan struct{} // closed once the hub has registered the client
}

// Hub tracks clients per session room and implements game.FrameSink.
type Hub struct {
	rooms      map[string]map[*Client]struct{} // session token -> clients
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	log        *zap.Logger
	mu         sync.RWMutex
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log.Named("ws"),
	}
}

// OutMessage is the envelope of every server-to-client message.
type OutMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// WSMessage is the envelope of client-to-server messages.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Run processes registrations until ctx is done, then drops every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for token, room := range h.rooms {
				for c := range room {
					close(c.send)
				}
				delete(h.rooms, token)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			room, ok := h.rooms[c.token]
			if !ok {
				room = make(map[*Client]struct{})
				h.rooms[c.token] = room
			}
			room[c] = struct{}{}
			size := len(room)
			h.mu.Unlock()
			close(c.ready)
			h.log.Info("client joined", zap.String("token", c.token), zap.Int("seat", c.seat), zap.Int("room_size", size))

		case c := <-h.unregister:
			h.mu.Lock()
			if room, ok := h.rooms[c.token]; ok {
				if _, ok := room[c]; ok {
					delete(room, c)
					close(c.send)
					if len(room) == 0 {
						delete(h.rooms, c.token)
					}
				}
			}
			h.mu.Unlock()
			h.log.Info("client left", zap.String("token", c.token), zap.Int("seat", c.seat))
		}
	}
}

func (h *Hub) addClient(c *Client) bool {
	select {
	case h.register <- c:
	case <-h.done:
		return false
	}
	select {
	case <-c.ready:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) removeClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// BroadcastToGame sends a message to every client in a session room. Slow
// clients drop messages rather than stall the frame loop.
func (h *Hub) BroadcastToGame(token string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.log.Error("marshal message failed", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[token] {
		select {
		case c.send <- data:
		default:
			h.log.Debug("send buffer full, dropping message", zap.String("token", token), zap.Int("seat", c.seat))
		}
	}
}

// sendTo delivers to one client if it is still registered.
func (h *Hub) sendTo(c *Client, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.log.Error("marshal message failed", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.rooms[c.token][c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		h.log.Debug("send buffer full, dropping message", zap.String("token", c.token), zap.Int("seat", c.seat))
	}
}

func (h *Hub) RoomSize(token string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[token])
}

// PublishFrame broadcasts the draw operations of one tick.
func (h *Hub) PublishFrame(token string, msg game.FrameMessage) {
	h.BroadcastToGame(token, OutMessage{Type: "frame", Data: msg})
}

// PublishEvent broadcasts a session event under its own type.
func (h *Hub) PublishEvent(ev game.SessionEvent) {
	h.BroadcastToGame(ev.Token, OutMessage{Type: ev.Type, Data: ev})
}

// writePump writes queued messages and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.log.Debug("write failed", zap.String("token", c.token), zap.Int("seat", c.seat), zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.log.Debug("ping failed", zap.String("token", c.token), zap.Int("seat", c.seat), zap.Error(err))
				return
			}
		}
	}
}

func (c *Client) sendError(message string) {
	c.hub.sendTo(c, map[string]interface{}{
		"type":    "error",
		"message": message,
	})
}
