package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"visionboard-backend/internal/models"
	"visionboard-backend/internal/services"
	"visionboard-backend/internal/session"
)

// coach is the conversation engine seam, satisfied by services.GeminiService.
type coach interface {
	Converse(ctx context.Context, history []models.ChatMessage, text string, image *services.InlineImage) (string, error)
}

type eventPublisher interface {
	Publish(sessionID string, msg models.WSMessage)
}

type ChatHandler struct {
	store   *session.Store
	coach   coach
	events  eventPublisher
	timeout time.Duration
}

func NewChatHandler(store *session.Store, coach coach, events eventPublisher, timeout time.Duration) *ChatHandler {
	return &ChatHandler{
		store:   store,
		coach:   coach,
		events:  events,
		timeout: timeout,
	}
}

// SendMessage runs one coaching turn. The user and assistant messages are
// committed to history together, and only after the backend call succeeds; a
// failed call leaves the transcript unchanged so the client can retry.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	text := strings.TrimSpace(req.Message)
	if text == "" && req.ImageBase64 == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Message text or an image is required", r))
		return
	}

	image, err := decodeImage(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid image payload", r))
		return
	}

	history, err := h.store.BeginTurn(sessionID)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionNotFound):
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Session not found", r))
		case errors.Is(err, session.ErrTurnInFlight):
			writeJSON(w, http.StatusConflict, errorResp("TURN_IN_FLIGHT", "Another chat turn is still in progress", r))
		default:
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL", "Failed to start chat turn", r))
		}
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	reply, err := h.coach.Converse(ctx, history, req.Message, image)
	if err != nil {
		h.store.EndTurn(sessionID)
		if errors.Is(err, services.ErrEmptySubmission) {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Message text or an image is required", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("AI_ERROR", "Failed to get AI response", r))
		return
	}

	now := time.Now()
	userMsg := models.ChatMessage{Role: models.RoleUser, Content: displayContent(text, image), Timestamp: now}
	// An empty reply is a valid turn, recorded as an empty assistant message
	assistantMsg := models.ChatMessage{Role: models.RoleAssistant, Content: reply, Timestamp: now}

	if err := h.store.EndTurn(sessionID, userMsg, assistantMsg); err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Session not found", r))
		return
	}

	h.events.Publish(sessionID, models.WSMessage{
		Type:    "assistant_reply",
		Payload: models.AssistantReply{SessionID: sessionID, Message: assistantMsg},
	})

	writeJSON(w, http.StatusOK, models.ChatResponse{Reply: reply, Message: assistantMsg})
}

func decodeImage(req models.ChatRequest) (*services.InlineImage, error) {
	if req.ImageBase64 == "" {
		return nil, nil
	}

	// Tolerate data-URI payloads ("data:image/jpeg;base64,...")
	payload := req.ImageBase64
	if idx := strings.Index(payload, ","); idx >= 0 && strings.Contains(payload[:idx], ";base64") {
		payload = payload[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, err
	}

	mime := req.ImageMIME
	if mime == "" {
		mime = "image/jpeg"
	}
	return &services.InlineImage{MIMEType: mime, Data: data}, nil
}

// displayContent is what history records for an image-only submission.
func displayContent(text string, image *services.InlineImage) string {
	if text == "" && image != nil {
		return "Uploaded a photo. Please analyze this dream!"
	}
	return text
}
