package handlers

import (
	"net/http"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/models"
)

// ChatHistory returns the stored chat, oldest first.
func (h *Handler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.boardroom.ChatHistory(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to fetch chat history")
		return
	}
	if history == nil {
		history = []models.ChatMessage{}
	}
	h.JSON(w, http.StatusOK, history)
}

// ClearChat deletes the chat history.
func (h *Handler) ClearChat(w http.ResponseWriter, r *http.Request) {
	if err := h.boardroom.ClearChat(r.Context()); err != nil {
		h.fail(w, r, err, "Failed to clear chat history")
		return
	}
	h.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
