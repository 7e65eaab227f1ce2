package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"visionboard-backend/internal/models"
	"visionboard-backend/internal/session"
)

type fakeExtractor struct {
	items         []models.VisionItem
	err           error
	gotTranscript string
}

func (f *fakeExtractor) Extract(ctx context.Context, transcript string) ([]models.VisionItem, error) {
	f.gotTranscript = transcript
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

func newBoardRig(ex *fakeExtractor) (*session.Store, *fakePublisher, http.Handler) {
	store := session.NewStore()
	events := &fakePublisher{}
	h := NewBoardHandler(store, ex, events, time.Minute)

	r := chi.NewRouter()
	r.Post("/api/v1/sessions/{id}/board", h.Generate)
	r.Get("/api/v1/sessions/{id}/board", h.Get)
	return store, events, r
}

func seedConversation(store *session.Store) models.Session {
	sess := store.Create("Kim", "Welcome")
	store.BeginTurn(sess.ID)
	now := time.Now()
	store.EndTurn(sess.ID,
		models.ChatMessage{Role: models.RoleUser, Content: "a trip to Hawaii in spring, budget around 3,000,000", Timestamp: now},
		models.ChatMessage{Role: models.RoleAssistant, Content: "[Dream Title]: Hawaii Trip", Timestamp: now},
	)
	return sess
}

func TestGenerate_Success(t *testing.T) {
	ex := &fakeExtractor{items: []models.VisionItem{{
		ID:               "v1",
		Title:            "Trip to Hawaii",
		Category:         models.CategoryPlace,
		TargetDate:       "2026-04",
		EstimatedCost:    3000000,
		ImageURL:         "https://loremflickr.com/800/600/hawaii,beach?sig=v1",
		AdditionalImages: []string{},
	}}}
	store, events, handler := newBoardRig(ex)
	sess := seedConversation(store)

	rr := postJSON(t, handler, "/api/v1/sessions/"+sess.ID+"/board", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp models.BoardResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(resp.Items))
	}
	if resp.Items[0].Category != models.CategoryPlace {
		t.Errorf("Expected category place, got %q", resp.Items[0].Category)
	}
	if !strings.HasSuffix(resp.Items[0].ImageURL, "?sig=v1") {
		t.Errorf("Expected sig=v1 in image URL, got %q", resp.Items[0].ImageURL)
	}

	// Transcript flattened as role: content lines
	if !strings.Contains(ex.gotTranscript, "user: a trip to Hawaii") {
		t.Errorf("Unexpected transcript %q", ex.gotTranscript)
	}

	// Board installed and announced
	items, _ := store.Items(sess.ID)
	if len(items) != 1 {
		t.Errorf("Expected 1 stored item, got %d", len(items))
	}
	if len(events.events) != 1 || events.events[0].Type != "board_ready" {
		t.Errorf("Expected one board_ready event, got %v", events.events)
	}
}

func TestGenerate_EmptyBoardIsValid(t *testing.T) {
	ex := &fakeExtractor{items: []models.VisionItem{}}
	store, _, handler := newBoardRig(ex)
	sess := seedConversation(store)

	rr := postJSON(t, handler, "/api/v1/sessions/"+sess.ID+"/board", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for an empty extraction, got %d", rr.Code)
	}

	var resp models.BoardResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if len(resp.Items) != 0 {
		t.Errorf("Expected empty board, got %d items", len(resp.Items))
	}
}

func TestGenerate_RequiresConversation(t *testing.T) {
	ex := &fakeExtractor{}
	store, _, handler := newBoardRig(ex)
	sess := store.Create("Kim", "Welcome") // intro only

	rr := postJSON(t, handler, "/api/v1/sessions/"+sess.ID+"/board", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for an intro-only session, got %d", rr.Code)
	}
}

func TestGenerate_ExtractionFailure(t *testing.T) {
	ex := &fakeExtractor{err: errors.New("malformed output")}
	store, events, handler := newBoardRig(ex)
	sess := seedConversation(store)

	rr := postJSON(t, handler, "/api/v1/sessions/"+sess.ID+"/board", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", rr.Code)
	}

	// No partial board, no event
	items, _ := store.Items(sess.ID)
	if len(items) != 0 {
		t.Errorf("Expected no items after failure, got %d", len(items))
	}
	if len(events.events) != 0 {
		t.Errorf("Expected no events after failure, got %v", events.events)
	}
}

func TestGenerate_PreservesAchievementsAcrossRuns(t *testing.T) {
	ex := &fakeExtractor{items: []models.VisionItem{{
		ID: "v1", Title: "Trip to Hawaii", Category: models.CategoryPlace,
	}}}
	store, _, handler := newBoardRig(ex)
	sess := seedConversation(store)

	postJSON(t, handler, "/api/v1/sessions/"+sess.ID+"/board", nil)
	if _, err := store.ToggleAchieved(sess.ID, "v1", time.Now()); err != nil {
		t.Fatalf("ToggleAchieved failed: %v", err)
	}

	// Re-run with a fresh backend-assigned id for the same dream
	ex.items = []models.VisionItem{{ID: "v2", Title: "Trip to Hawaii", Category: models.CategoryPlace}}
	rr := postJSON(t, handler, "/api/v1/sessions/"+sess.ID+"/board", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var resp models.BoardResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if len(resp.Items) != 1 || !resp.Items[0].IsAchieved {
		t.Errorf("Expected achievement state to survive regeneration, got %+v", resp.Items)
	}
}

func TestGetBoard_CategoryFilter(t *testing.T) {
	store, _, handler := newBoardRig(&fakeExtractor{})
	sess := store.Create("Kim", "Welcome")
	store.SetItems(sess.ID, []models.VisionItem{
		{ID: "a", Title: "Hawaii", Category: models.CategoryPlace},
		{ID: "b", Title: "GV80", Category: models.CategoryItem},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+sess.ID+"/board?category=place", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var resp models.BoardResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if len(resp.Items) != 1 || resp.Items[0].Category != models.CategoryPlace {
		t.Errorf("Expected only place items, got %+v", resp.Items)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+sess.ID+"/board?category=vehicle", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unknown category, got %d", rr.Code)
	}
}

func TestItemStatus(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedTag  string
	}{
		{"unknown session", session.ErrSessionNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"unknown item", session.ErrItemNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"unexpected failure", errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, code, msg := itemStatus(tc.err)
			if status != tc.expectedCode {
				t.Errorf("Expected status %d, got %d", tc.expectedCode, status)
			}
			if code != tc.expectedTag {
				t.Errorf("Expected code %q, got %q", tc.expectedTag, code)
			}
			if msg == "" {
				t.Error("Expected a non-empty message")
			}
		})
	}
}
