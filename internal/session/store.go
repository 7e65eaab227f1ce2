// Package session holds all mutable state of the board builder: chat history
// and vision items, owned by a single session and kept strictly in memory.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"visionboard-backend/internal/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrItemNotFound    = errors.New("vision item not found")

	// ErrTurnInFlight is returned when a chat turn is started while another
	// one for the same session is still outstanding. Turns read history as
	// fixed input, so they must be serialized per session.
	ErrTurnInFlight = errors.New("a chat turn is already in flight for this session")
)

type sessionState struct {
	data         models.Session
	turnInFlight bool
}

type Store struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*sessionState)}
}

// Create opens a new session seeded with the given introductory assistant
// message, so the very first user turn always has a non-empty history.
func (s *Store) Create(creatorName, intro string) models.Session {
	now := time.Now()
	sess := models.Session{
		ID:          uuid.NewString(),
		CreatorName: creatorName,
		Messages: []models.ChatMessage{
			{Role: models.RoleAssistant, Content: intro, Timestamp: now},
		},
		Items:     []models.VisionItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = &sessionState{data: sess}
	s.mu.Unlock()

	return sess
}

// Get returns a snapshot of the session. Mutating the copy does not affect
// store state.
func (s *Store) Get(id string) (models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[id]
	if !ok {
		return models.Session{}, ErrSessionNotFound
	}
	return copySession(st.data), nil
}

// Delete tears the session down, discarding all of its state.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

// History returns a snapshot of the conversation so far.
func (s *Store) History(id string) ([]models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return append([]models.ChatMessage(nil), st.data.Messages...), nil
}

// BeginTurn marks a chat turn as outstanding and returns the history snapshot
// the turn must be built from. At most one turn per session may be in flight.
func (s *Store) BeginTurn(id string) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if st.turnInFlight {
		return nil, ErrTurnInFlight
	}
	st.turnInFlight = true
	return append([]models.ChatMessage(nil), st.data.Messages...), nil
}

// EndTurn releases the turn slot. When the backend call succeeded, the user
// and assistant messages are committed together; on failure the caller passes
// no messages and history stays exactly as it was.
func (s *Store) EndTurn(id string, messages ...models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	st.turnInFlight = false
	if len(messages) > 0 {
		st.data.Messages = append(st.data.Messages, messages...)
		st.data.UpdatedAt = time.Now()
	}
	return nil
}

// Items returns a snapshot of the current vision items.
func (s *Store) Items(id string) ([]models.VisionItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return append([]models.VisionItem(nil), st.data.Items...), nil
}

// SetItems installs a freshly extracted batch. Achievement state and
// user-edited details survive for items matching a prior one, first by id,
// then by (title, category) since extraction ids are model-generated per call.
// The merged result is returned.
func (s *Store) SetItems(id string, items []models.VisionItem) ([]models.VisionItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	merged := make([]models.VisionItem, len(items))
	for i, item := range items {
		if prev, ok := findMatch(st.data.Items, item); ok {
			item.IsAchieved = prev.IsAchieved
			item.AchievementDate = prev.AchievementDate
		}
		merged[i] = item
	}

	st.data.Items = merged
	st.data.UpdatedAt = time.Now()
	return append([]models.VisionItem(nil), merged...), nil
}

// UpdateItem applies the non-nil fields of req to the item.
func (s *Store) UpdateItem(id, itemID string, req models.UpdateVisionItemRequest) (models.VisionItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[id]
	if !ok {
		return models.VisionItem{}, ErrSessionNotFound
	}

	for i := range st.data.Items {
		if st.data.Items[i].ID != itemID {
			continue
		}
		item := &st.data.Items[i]
		if req.Title != nil {
			item.Title = *req.Title
		}
		if req.TargetDate != nil {
			item.TargetDate = *req.TargetDate
		}
		if req.EstimatedCost != nil {
			item.EstimatedCost = *req.EstimatedCost
		}
		if req.Details != nil {
			item.Details = *req.Details
		}
		if req.Specs != nil {
			item.Specs = *req.Specs
		}
		st.data.UpdatedAt = time.Now()
		return *item, nil
	}
	return models.VisionItem{}, ErrItemNotFound
}

// ToggleAchieved flips the achieved flag. The achievement date is set on the
// false-to-true transition and cleared on the way back.
func (s *Store) ToggleAchieved(id, itemID string, now time.Time) (models.VisionItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[id]
	if !ok {
		return models.VisionItem{}, ErrSessionNotFound
	}

	for i := range st.data.Items {
		if st.data.Items[i].ID != itemID {
			continue
		}
		item := &st.data.Items[i]
		item.IsAchieved = !item.IsAchieved
		if item.IsAchieved {
			date := now.Format("2006-01-02")
			item.AchievementDate = &date
		} else {
			item.AchievementDate = nil
		}
		st.data.UpdatedAt = time.Now()
		return *item, nil
	}
	return models.VisionItem{}, ErrItemNotFound
}

// DeleteItem removes a single item from the board.
func (s *Store) DeleteItem(id, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}

	for i := range st.data.Items {
		if st.data.Items[i].ID == itemID {
			st.data.Items = append(st.data.Items[:i], st.data.Items[i+1:]...)
			st.data.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrItemNotFound
}

func findMatch(prev []models.VisionItem, item models.VisionItem) (models.VisionItem, bool) {
	for _, p := range prev {
		if p.ID == item.ID {
			return p, true
		}
	}
	for _, p := range prev {
		if p.Title == item.Title && p.Category == item.Category {
			return p, true
		}
	}
	return models.VisionItem{}, false
}

func copySession(sess models.Session) models.Session {
	out := sess
	out.Messages = append([]models.ChatMessage(nil), sess.Messages...)
	out.Items = append([]models.VisionItem(nil), sess.Items...)
	return out
}
