package models

import "time"

// Chat roles as stored in session history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a single message in a conversation.
// Messages are append-only; their order defines the turn order sent to Gemini.
type ChatMessage struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatRequest is the payload sent to the chat endpoint. An image may be
// attached as base64 data; a request with neither text nor image is invalid.
type ChatRequest struct {
	Message     string `json:"message"`
	ImageBase64 string `json:"image_base64,omitempty"`
	ImageMIME   string `json:"image_mime,omitempty"`
}

// ChatResponse is the reply from the AI coach.
type ChatResponse struct {
	Reply   string      `json:"reply"`
	Message ChatMessage `json:"message"`
}
