package handler

import (
	"net/http"

	"github.com/forgehex/hexwar/api/internal/auth"
	"github.com/forgehex/hexwar/api/internal/repository"
)

// MessageHandler handles battle chat endpoints.
type MessageHandler struct {
	messageRepo repository.MessageRepository
	hub         *Hub
}

// NewMessageHandler creates a MessageHandler.
func NewMessageHandler(messageRepo repository.MessageRepository, hub *Hub) *MessageHandler {
	return &MessageHandler{messageRepo: messageRepo, hub: hub}
}

// ListMessages handles GET /api/v1/battles/{id}/messages
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	battleID := r.PathValue("id")
	messages, err := h.messageRepo.ListByBattle(r.Context(), battleID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if messages == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// SendMessage handles POST /api/v1/battles/{id}/messages
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	battleID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	msg, err := h.messageRepo.Create(r.Context(), battleID, userID, req.Content)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.hub.BroadcastToBattle(battleID, WSEvent{Type: EventMessage, BattleID: battleID, Data: msg})

	writeJSON(w, http.StatusCreated, msg)
}
