package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"visionboard-backend/internal/models"
	"visionboard-backend/internal/session"
)

type SessionHandler struct {
	store *session.Store
}

func NewSessionHandler(store *session.Store) *SessionHandler {
	return &SessionHandler{store: store}
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	name := strings.TrimSpace(req.CreatorName)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Creator name is required", r))
		return
	}

	sess := h.store.Create(name, introMessage(name))
	writeJSON(w, http.StatusCreated, toSessionResponse(sess))
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Session not found", r))
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(chi.URLParam(r, "id")); err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Session not found", r))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.store.History(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Session not found", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

// introMessage seeds each new session, so the first user turn always has a
// prior assistant turn to anchor the conversation.
func introMessage(creatorName string) string {
	return fmt.Sprintf(`Welcome, %s! 🌟
I'm ready to help you visualize your amazing future.

If you have a photo of something you dream about, upload it! I'll analyze the image and design a cost plan tailored just for you. 🌸☀️🍂❄️

💡 Tip: you can upload a picture, or simply tell me the title of your dream.`, creatorName)
}

func toSessionResponse(sess models.Session) models.SessionResponse {
	return models.SessionResponse{
		ID:          sess.ID,
		CreatorName: sess.CreatorName,
		Messages:    sess.Messages,
		ItemCount:   len(sess.Items),
		CreatedAt:   sess.CreatedAt,
	}
}
