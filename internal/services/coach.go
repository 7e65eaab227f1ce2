package services

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"visionboard-backend/internal/models"
)

// InlineImage is an image attached to a chat turn.
type InlineImage struct {
	MIMEType string
	Data     []byte
}

// Converse runs one coaching turn: the prior history plus the new user input
// (text, image, or both) goes to Gemini in a single call and the reply text
// comes back. The engine holds no conversation state; history is the caller's,
// passed in fixed and left untouched on failure. An empty reply is valid.
func (s *GeminiService) Converse(ctx context.Context, history []models.ChatMessage, text string, image *InlineImage) (string, error) {
	if strings.TrimSpace(text) == "" && image == nil {
		return "", ErrEmptySubmission
	}

	if err := s.acquireRate(ctx); err != nil {
		return "", err
	}
	defer s.releaseRate()

	return s.chat.Generate(ctx, buildChatHistory(history), buildUserParts(text, image)...)
}

// buildChatHistory translates stored messages into Gemini turns. Assistant
// messages become "model" turns, everything else "user"; content is carried
// verbatim so the transcript round-trips.
func buildChatHistory(history []models.ChatMessage) []*genai.Content {
	turns := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		role := "user"
		if m.Role == models.RoleAssistant {
			role = "model"
		}
		turns = append(turns, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}
	return turns
}

func buildUserParts(text string, image *InlineImage) []genai.Part {
	parts := []genai.Part{genai.Text(text)}
	if image != nil {
		parts = append(parts, genai.Blob{MIMEType: image.MIMEType, Data: image.Data})
	}
	return parts
}
