package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"dating-api/internal/middleware"
	"dating-api/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub            *services.WSHub
	tokens         middleware.TokenParser
	messageService *services.MessageService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.WSHub, tokens middleware.TokenParser, messageService *services.MessageService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		tokens:         tokens,
		messageService: messageService,
	}
}

// HandleWebSocket handles GET /ws?token=
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.ValidateWebSocketToken(r.URL.Query().Get("token"), h.tokens)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.hub.Register(caller.ID, conn)
	defer h.hub.Unregister(caller.ID, conn)

	if err := h.hub.SendToUser(caller.ID, services.WSMessage{Type: "connected"}); err != nil {
		log.Error().Err(err).Int64("user_id", caller.ID).Msg("Failed to send connected message")
	}
	log.Info().Int64("user_id", caller.ID).Msg("WebSocket connection established")

	ctx := context.WithoutCancel(r.Context())
	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Int64("user_id", caller.ID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			h.sendError(caller.ID, "Invalid message format")
			continue
		}

		switch msg.Type {
		case "ping":
			_ = h.hub.SendToUser(caller.ID, services.WSMessage{Type: "pong"})
		case "mark_read":
			if err := h.messageService.MarkRead(ctx, caller, caller.ID, msg.MessageID); err != nil {
				log.Debug().Err(err).Int64("user_id", caller.ID).Int64("message_id", msg.MessageID).Msg("mark_read failed")
				h.sendError(caller.ID, "Failed to mark message read")
			}
		default:
			h.sendError(caller.ID, "Unknown message type")
		}
	}
}

// sendError sends an error message to a user
func (h *WebSocketHandler) sendError(userID int64, message string) {
	if err := h.hub.SendToUser(userID, services.WSMessage{Type: "error", Message: message}); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to send WebSocket error")
	}
}
