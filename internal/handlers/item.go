package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"visionboard-backend/internal/models"
	"visionboard-backend/internal/session"
)

type ItemHandler struct {
	store *session.Store
}

func NewItemHandler(store *session.Store) *ItemHandler {
	return &ItemHandler{store: store}
}

func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateVisionItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.EstimatedCost != nil && *req.EstimatedCost < 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Estimated cost must not be negative", r))
		return
	}

	item, err := h.store.UpdateItem(chi.URLParam(r, "id"), chi.URLParam(r, "itemID"), req)
	if err != nil {
		status, code, msg := itemStatus(err)
		writeJSON(w, status, errorResp(code, msg, r))
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) ToggleAchieved(w http.ResponseWriter, r *http.Request) {
	item, err := h.store.ToggleAchieved(chi.URLParam(r, "id"), chi.URLParam(r, "itemID"), time.Now())
	if err != nil {
		status, code, msg := itemStatus(err)
		writeJSON(w, status, errorResp(code, msg, r))
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteItem(chi.URLParam(r, "id"), chi.URLParam(r, "itemID")); err != nil {
		status, code, msg := itemStatus(err)
		writeJSON(w, status, errorResp(code, msg, r))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
