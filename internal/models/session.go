package models

import "time"

// Session is the in-memory state owned by one board-builder session.
// It is never persisted; teardown discards it.
type Session struct {
	ID          string        `json:"id"`
	CreatorName string        `json:"creator_name"`
	Messages    []ChatMessage `json:"messages"`
	Items       []VisionItem  `json:"items"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// CreateSessionRequest opens a new session for the named creator.
type CreateSessionRequest struct {
	CreatorName string `json:"creator_name"`
}

// SessionResponse is returned on session creation and reads.
type SessionResponse struct {
	ID          string        `json:"id"`
	CreatorName string        `json:"creator_name"`
	Messages    []ChatMessage `json:"messages"`
	ItemCount   int           `json:"item_count"`
	CreatedAt   time.Time     `json:"created_at"`
}

// WSMessage is the envelope pushed to websocket clients of a session.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// BoardReady is the payload of a "board_ready" event.
type BoardReady struct {
	SessionID string `json:"session_id"`
	ItemCount int    `json:"item_count"`
}

// AssistantReply is the payload of an "assistant_reply" event, mirroring the
// message appended to history so other tabs of the same session stay in sync.
type AssistantReply struct {
	SessionID string      `json:"session_id"`
	Message   ChatMessage `json:"message"`
}
