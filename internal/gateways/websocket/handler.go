package websocket

import (
	"net/http"

	"backend/internal/app/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type WSHandler struct {
	hub    *Hub
	tokens *auth.TokenManager
}

func NewWSHandler(hub *Hub, tokens *auth.TokenManager) *WSHandler {
	return &WSHandler{hub: hub, tokens: tokens}
}

func (h *WSHandler) ServeWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		h.hub.logger.Warnw("WebSocket connection rejected: token missing",
			"client_ip", c.ClientIP(),
		)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token is required"})
		return
	}

	userID, err := h.tokens.Validate(token)
	if err != nil {
		h.hub.logger.Warnw("WebSocket connection rejected: invalid token",
			"client_ip", c.ClientIP(),
			"error", err,
		)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.logger.Errorw("Failed to upgrade connection",
			"user_id", userID,
			"error", err,
		)
		return
	}
	defer conn.Close()

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		ID:     generateClientID(),
		UserID: userID,
	}

	h.hub.register <- client

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.hub.unregister <- client
}
