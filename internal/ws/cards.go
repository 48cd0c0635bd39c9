package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kaiwsv/rootsrecipes-api/internal/logger"
	"github.com/kaiwsv/rootsrecipes-api/internal/session"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Origin enforcement happens at the router's CORS layer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// CardStreamHandler upgrades clients onto a session's card-media stream.
type CardStreamHandler struct {
	Hub      *Hub
	Sessions *session.Store
}

// NewCardStreamHandler creates a new CardStreamHandler.
func NewCardStreamHandler(hub *Hub, sessions *session.Store) *CardStreamHandler {
	return &CardStreamHandler{Hub: hub, Sessions: sessions}
}

// HandleCardStream handles GET /v1/ws/cards/:session_id. The connection
// only receives; closing it tears the room down and any media still being
// resolved for the session is discarded on arrival.
func (h *CardStreamHandler) HandleCardStream(c *gin.Context) {
	sessionID := c.Param("session_id")
	if _, err := h.Sessions.Get(sessionID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown session"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Get().Warn("websocket upgrade failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return
	}

	client := &Client{
		Hub:       h.Hub,
		Conn:      conn,
		Send:      make(chan []byte, 32),
		SessionID: sessionID,
	}
	h.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
