package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/KonstantinKlepikov/cold-war-boardgame-sub000/internal/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

// wsMessage is the envelope pushed to subscribers.
type wsMessage struct {
	Type  string         `json:"type"`
	State *game.GameView `json:"state,omitempty"`
}

type client struct {
	conn  *websocket.Conn
	send  chan []byte
	login string
}

// Hub fans game state updates out to the WebSocket subscribers of each
// login. A login may hold several connections (multiple tabs).
type Hub struct {
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[string]map[*client]struct{}),
	}
}

// Push sends the view to every connection subscribed as login.
func (h *Hub) Push(login string, view *game.GameView) {
	raw, err := json.Marshal(wsMessage{Type: "state", State: view})
	if err != nil {
		h.logger.Error("failed to serialize state push", zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[login] {
		select {
		case c.send <- raw:
		default:
			// Slow consumer; drop the frame rather than block the API.
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.login]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.login] = set
	}
	set[c] = struct{}{}
	h.logger.Debug("websocket client registered", zap.String("login", c.login))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[c.login]; ok {
		if _, present := set[c]; present {
			delete(set, c)
			close(c.send)
			if len(set) == 0 {
				delete(h.clients, c.login)
			}
		}
	}
	h.logger.Debug("websocket client unregistered", zap.String("login", c.login))
}

// handleWS upgrades the connection and subscribes it to the login's
// state pushes. The current state is sent immediately so reconnecting
// clients do not wait for the next action.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	login, err := s.loginFromRequest(r)
	if err != nil {
		httpError(w, http.StatusUnauthorized, "invalid or missing token")
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 16), login: login}
	s.hub.register(c)

	go c.writePump()
	go c.readPump(s.hub)

	if view, err := s.svc.State(r.Context(), login); err == nil {
		s.hub.Push(login, view)
	}
}

// readPump discards inbound frames and detects disconnects. The API is
// HTTP; the socket is push-only.
func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case raw, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
