package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"visionboard-backend/internal/models"
	"visionboard-backend/internal/services"
	"visionboard-backend/internal/session"
)

// extractor is the vision extraction engine seam, satisfied by
// services.GeminiService.
type extractor interface {
	Extract(ctx context.Context, transcript string) ([]models.VisionItem, error)
}

type BoardHandler struct {
	store     *session.Store
	extractor extractor
	events    eventPublisher
	timeout   time.Duration
}

func NewBoardHandler(store *session.Store, extractor extractor, events eventPublisher, timeout time.Duration) *BoardHandler {
	return &BoardHandler{
		store:     store,
		extractor: extractor,
		events:    events,
		timeout:   timeout,
	}
}

// Generate extracts vision items from the session transcript and installs
// them as the current board. Achievement state of matching prior items
// survives the refresh. Safe to call repeatedly.
func (h *BoardHandler) Generate(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	history, err := h.store.History(sessionID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Session not found", r))
		return
	}

	// The seeded intro alone is not enough to extract from
	if len(history) < 2 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Chat about your dreams first, then generate the board", r))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.extractor.Extract(ctx, services.FlattenTranscript(history))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("EXTRACTION_ERROR", "Failed to generate the vision board", r))
		return
	}

	merged, err := h.store.SetItems(sessionID, items)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Session not found", r))
		return
	}

	h.events.Publish(sessionID, models.WSMessage{
		Type:    "board_ready",
		Payload: models.BoardReady{SessionID: sessionID, ItemCount: len(merged)},
	})

	writeJSON(w, http.StatusOK, models.BoardResponse{Items: merged})
}

// Get returns the current board, optionally filtered by ?category=.
func (h *BoardHandler) Get(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.Items(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Session not found", r))
		return
	}

	if category := r.URL.Query().Get("category"); category != "" {
		if !models.ValidCategory(category) {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Unknown category", r))
			return
		}
		filtered := make([]models.VisionItem, 0, len(items))
		for _, item := range items {
			if item.Category == category {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}

	writeJSON(w, http.StatusOK, models.BoardResponse{Items: items})
}

func itemStatus(err error) (status int, code, message string) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound, "NOT_FOUND", "Session not found"
	case errors.Is(err, session.ErrItemNotFound):
		return http.StatusNotFound, "NOT_FOUND", "Vision item not found"
	default:
		return http.StatusInternalServerError, "INTERNAL", "Unexpected error"
	}
}
