package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"

	"visionboard-backend/internal/imagery"
	"visionboard-backend/internal/models"
)

// fakeGenerator records the last request and replies with canned output.
type fakeGenerator struct {
	reply   string
	err     error
	history []*genai.Content
	parts   []genai.Part
	calls   int
}

func (f *fakeGenerator) Generate(ctx context.Context, history []*genai.Content, parts ...genai.Part) (string, error) {
	f.calls++
	f.history = history
	f.parts = parts
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newTestService(chat, extract Generator) *GeminiService {
	rateChan := make(chan struct{}, 1)
	rateChan <- struct{}{}
	return &GeminiService{
		chat:     chat,
		extract:  extract,
		deriver:  imagery.NewDeriver("https://loremflickr.com"),
		currency: "KRW",
		rateChan: rateChan,
	}
}

func TestBuildChatHistory_RoundTrip(t *testing.T) {
	history := []models.ChatMessage{
		{Role: models.RoleAssistant, Content: "Welcome"},
		{Role: models.RoleUser, Content: "Hawaii trip next spring"},
		{Role: models.RoleAssistant, Content: "[Dream Title]: Hawaii Trip"},
	}

	turns := buildChatHistory(history)
	if len(turns) != len(history) {
		t.Fatalf("Expected %d turns, got %d", len(history), len(turns))
	}

	for i, turn := range turns {
		expectedRole := "user"
		if history[i].Role == models.RoleAssistant {
			expectedRole = "model"
		}
		if turn.Role != expectedRole {
			t.Errorf("Turn %d: expected role %q, got %q", i, expectedRole, turn.Role)
		}

		if len(turn.Parts) != 1 {
			t.Fatalf("Turn %d: expected 1 part, got %d", i, len(turn.Parts))
		}
		text, ok := turn.Parts[0].(genai.Text)
		if !ok {
			t.Fatalf("Turn %d: expected text part, got %T", i, turn.Parts[0])
		}
		if string(text) != history[i].Content {
			t.Errorf("Turn %d: expected content %q, got %q", i, history[i].Content, string(text))
		}
	}
}

func TestBuildChatHistory_OnlyTwoRoles(t *testing.T) {
	turns := buildChatHistory([]models.ChatMessage{
		{Role: "assistant", Content: "a"},
		{Role: "user", Content: "b"},
		{Role: "something-else", Content: "c"},
	})

	for i, turn := range turns {
		if turn.Role != "user" && turn.Role != "model" {
			t.Errorf("Turn %d: role %q is not a backend-facing role", i, turn.Role)
		}
	}
}

func TestBuildUserParts(t *testing.T) {
	image := &InlineImage{MIMEType: "image/png", Data: []byte{1, 2, 3}}

	tests := []struct {
		name      string
		text      string
		image     *InlineImage
		wantParts int
	}{
		{"text only", "my dream", nil, 1},
		{"text and image", "my dream", image, 2},
		{"image only", "", image, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parts := buildUserParts(tc.text, tc.image)
			if len(parts) != tc.wantParts {
				t.Fatalf("Expected %d parts, got %d", tc.wantParts, len(parts))
			}

			if tc.image != nil {
				blob, ok := parts[len(parts)-1].(genai.Blob)
				if !ok {
					t.Fatalf("Expected trailing blob part, got %T", parts[len(parts)-1])
				}
				if blob.MIMEType != tc.image.MIMEType {
					t.Errorf("Expected MIME %q, got %q", tc.image.MIMEType, blob.MIMEType)
				}
			}
		})
	}
}

func TestConverse_RejectsEmptySubmission(t *testing.T) {
	fake := &fakeGenerator{reply: "should not be called"}
	s := newTestService(fake, nil)

	_, err := s.Converse(context.Background(), nil, "   ", nil)
	if !errors.Is(err, ErrEmptySubmission) {
		t.Fatalf("Expected ErrEmptySubmission, got %v", err)
	}
	if fake.calls != 0 {
		t.Errorf("Expected no backend call for an empty submission, got %d", fake.calls)
	}
}

func TestConverse_ImageOnlyIsValid(t *testing.T) {
	fake := &fakeGenerator{reply: "That is a Genesis GV80!"}
	s := newTestService(fake, nil)

	reply, err := s.Converse(context.Background(), nil, "", &InlineImage{MIMEType: "image/jpeg", Data: []byte{0xff}})
	if err != nil {
		t.Fatalf("Expected image-only submission to succeed, got %v", err)
	}
	if reply != "That is a Genesis GV80!" {
		t.Errorf("Unexpected reply %q", reply)
	}
	if fake.calls != 1 {
		t.Errorf("Expected exactly one backend call, got %d", fake.calls)
	}
}

func TestConverse_EmptyReplyIsNotAnError(t *testing.T) {
	fake := &fakeGenerator{reply: ""}
	s := newTestService(fake, nil)

	reply, err := s.Converse(context.Background(), nil, "hello", nil)
	if err != nil {
		t.Fatalf("Expected empty reply to be valid, got error %v", err)
	}
	if reply != "" {
		t.Errorf("Expected empty reply, got %q", reply)
	}
}

func TestConverse_BackendFailurePropagates(t *testing.T) {
	backendErr := errors.New("quota exceeded")
	fake := &fakeGenerator{err: backendErr}
	s := newTestService(fake, nil)

	_, err := s.Converse(context.Background(), nil, "hello", nil)
	if !errors.Is(err, backendErr) {
		t.Fatalf("Expected wrapped backend error, got %v", err)
	}
}

func TestConverse_PassesHistoryUnchanged(t *testing.T) {
	fake := &fakeGenerator{reply: "ok"}
	s := newTestService(fake, nil)

	history := []models.ChatMessage{
		{Role: models.RoleAssistant, Content: "Welcome"},
		{Role: models.RoleUser, Content: "A cabin in the woods"},
	}

	if _, err := s.Converse(context.Background(), history, "next winter", nil); err != nil {
		t.Fatalf("Converse failed: %v", err)
	}

	if len(fake.history) != 2 {
		t.Fatalf("Expected 2 prior turns, got %d", len(fake.history))
	}
	if fake.history[0].Role != "model" || fake.history[1].Role != "user" {
		t.Errorf("Roles not translated in order: %q, %q", fake.history[0].Role, fake.history[1].Role)
	}
	if len(fake.parts) != 1 {
		t.Fatalf("Expected 1 new-turn part, got %d", len(fake.parts))
	}
}
