package handlers

import (
	"net/http"

	"dating-api/internal/models"
	"dating-api/internal/services"
)

// MessageHandler handles message requests
type MessageHandler struct {
	messageService *services.MessageService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// ListMessages handles GET /api/users/{userId}/messages?messageContainer=Unread|Inbox|Outbox
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(w, r, "userId")
	if !ok {
		return
	}
	container := models.ParseContainer(r.URL.Query().Get("messageContainer"))

	page, err := h.messageService.List(r.Context(), callerFrom(r), userID, container, pageParams(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	setPagination(w, page)
	respondJSON(w, http.StatusOK, page.Items)
}

// GetMessage handles GET /api/users/{userId}/messages/{id}
func (h *MessageHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(w, r, "userId")
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	msg, err := h.messageService.Get(r.Context(), callerFrom(r), userID, id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, msg)
}

// GetThread handles GET /api/users/{userId}/messages/thread/{recipientId}
func (h *MessageHandler) GetThread(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(w, r, "userId")
	if !ok {
		return
	}
	recipientID, ok := idParam(w, r, "recipientId")
	if !ok {
		return
	}

	thread, err := h.messageService.Thread(r.Context(), callerFrom(r), userID, recipientID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, thread)
}

// SendMessage handles POST /api/users/{userId}/messages
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(w, r, "userId")
	if !ok {
		return
	}
	var req services.SendMessageInput
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.messageService.Send(r.Context(), callerFrom(r), userID, req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/users/"+formatID(userID)+"/messages/"+formatID(msg.ID))
	respondJSON(w, http.StatusCreated, msg)
}

// DeleteMessage handles POST /api/users/{userId}/messages/{id}
func (h *MessageHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(w, r, "userId")
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.messageService.Delete(r.Context(), callerFrom(r), userID, id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkMessageRead handles POST /api/users/{userId}/messages/{id}/read
func (h *MessageHandler) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(w, r, "userId")
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.messageService.MarkRead(r.Context(), callerFrom(r), userID, id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
