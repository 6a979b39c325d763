package websocket

import (
	"crypto/rand"
	"encoding/base64"

	"backend/internal/app/message"
	"backend/internal/utils"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	ID     string
	UserID uint64
}

func generateClientID() string {
	bytes := make([]byte, 6)
	if _, err := rand.Read(bytes); err != nil {
		return "xxxxx"
	}
	return base64.URLEncoding.EncodeToString(bytes)
}

// Hub tracks connected clients by user and pushes message_created events
// to both endpoints of a message. All writes happen on the hub goroutine.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	eventBus   *utils.EventBus
	logger     *zap.SugaredLogger
}

func NewHub(logger *zap.Logger, eventBus *utils.EventBus) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		eventBus:   eventBus,
		logger:     logger.Sugar(),
	}
}

func (h *Hub) Run() {
	h.logger.Info("WebSocket Hub started")

	events := h.eventBus.SubscribeCh()

	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Infow("Client connected",
				"client_id", client.ID,
				"user_id", client.UserID,
				"clients_count", len(h.clients),
			)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				h.logger.Infow("Client disconnected",
					"client_id", client.ID,
					"user_id", client.UserID,
					"clients_count", len(h.clients),
				)
			}

		case ev := <-events:
			h.dispatch(ev)
		}
	}
}

func (h *Hub) dispatch(ev utils.Event) {
	payload, ok := ev.Data.(message.MessageCreatedEvent)
	if !ok {
		return
	}

	for client := range h.clients {
		if client.UserID != payload.SenderID && client.UserID != payload.ReceiverID {
			continue
		}
		if err := client.conn.WriteJSON(ev); err != nil {
			h.logger.Warnw("Failed to push event, dropping client",
				"client_id", client.ID,
				"user_id", client.UserID,
				"error", err,
			)
			client.conn.Close()
			delete(h.clients, client)
		}
	}
}
