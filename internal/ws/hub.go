// Package ws delivers asynchronous card-media updates to connected clients.
// Rooms are keyed by search session ID; a result arriving after the client
// has gone away finds no room and is dropped, which is exactly the
// no-update-after-unmount behavior the card layer needs.
package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kaiwsv/rootsrecipes-api/internal/logger"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024
)

// Client represents a single WebSocket connection subscribed to one search
// session's card updates.
type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	Send      chan []byte
	SessionID string
}

// Event is one message pushed to a session room.
type Event struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id"`
	Payload   interface{} `json:"payload,omitempty"`
}

// Hub maintains active session rooms and fans events out to them.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client
	events     chan Event

	mu    sync.RWMutex
	rooms map[string]map[*Client]bool // session ID -> set of clients
}

// NewHub creates and returns a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		events:     make(chan Event, 64),
		rooms:      make(map[string]map[*Client]bool),
	}
}

// Publish queues an event for the session's room. Publishing to a session
// with no connected clients is a silent no-op.
func (h *Hub) Publish(event Event) {
	select {
	case h.events <- event:
	default:
		logger.Get().Warn("ws event queue full, dropping event",
			zap.String("session_id", event.SessionID),
			zap.String("type", event.Type),
		)
	}
}

// Run handles register, unregister, and publish events. It should be
// launched as a goroutine.
func (h *Hub) Run() {
	log := logger.Get()

	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if h.rooms[client.SessionID] == nil {
				h.rooms[client.SessionID] = make(map[*Client]bool)
			}
			h.rooms[client.SessionID][client] = true
			h.mu.Unlock()

			log.Info("card stream client registered",
				zap.String("session_id", client.SessionID),
			)

		case client := <-h.Unregister:
			h.mu.Lock()
			h.dropClientLocked(client)
			h.mu.Unlock()

			log.Info("card stream client unregistered",
				zap.String("session_id", client.SessionID),
			)

		case event := <-h.events:
			message, err := json.Marshal(event)
			if err != nil {
				log.Error("failed to marshal ws event", zap.Error(err))
				continue
			}

			h.mu.Lock()
			for client := range h.rooms[event.SessionID] {
				select {
				case client.Send <- message:
				default:
					// Client's send buffer is full; disconnect it.
					h.dropClientLocked(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// dropClientLocked removes a client and its room when empty. Caller holds mu.
func (h *Hub) dropClientLocked(client *Client) {
	clients, ok := h.rooms[client.SessionID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.rooms, client.SessionID)
	}
}

// ReadPump drains (and discards) messages from the connection so pings and
// close frames are processed. The card stream is one-directional; clients
// have nothing to say. Run in a per-client goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
			) {
				logger.Get().Warn("unexpected websocket close",
					zap.String("session_id", c.SessionID),
					zap.Error(err),
				)
			}
			break
		}
	}
}

// WritePump sends messages from the Send channel to the WebSocket connection.
// It also sends periodic pings to keep the connection alive. Run in a
// per-client goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
