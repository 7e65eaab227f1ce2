package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"visionboard-backend/internal/imagery"
)

// ErrEmptySubmission is returned when a chat turn carries neither text nor an
// image. It is raised locally, before any network call.
var ErrEmptySubmission = errors.New("submission has neither text nor image")

// Generator is the seam between the engines and the generative backend.
// The production implementation wraps a Gemini model; tests substitute a fake.
type Generator interface {
	// Generate submits the ordered prior turns plus the parts of one new user
	// turn and returns the reply text. An empty reply with a nil error is a
	// valid outcome, not a failure.
	Generate(ctx context.Context, history []*genai.Content, parts ...genai.Part) (string, error)
}

type GeminiService struct {
	client  *genai.Client
	chat    Generator
	extract Generator
	deriver *imagery.Deriver

	currency string

	rateChan chan struct{} // Token bucket
}

func NewGeminiService(
	apiKey string,
	chatModelName string,
	extractModelName string,
	concurrentReqs int,
	referenceDate string,
	currency string,
	deriver *imagery.Deriver,
) (*GeminiService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	chatModel := client.GenerativeModel(chatModelName)
	chatModel.SetTemperature(0.7)
	chatModel.SetTopP(0.95)
	chatModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(buildSystemInstruction(referenceDate, currency))},
	}

	extractModel := client.GenerativeModel(extractModelName)
	extractModel.SetTemperature(0.2)
	extractModel.ResponseMIMEType = "application/json"
	extractModel.ResponseSchema = visionSchema()

	// Token bucket for rate limiting
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiService{
		client:   client,
		chat:     &geminiGenerator{model: chatModel},
		extract:  &geminiGenerator{model: extractModel},
		deriver:  deriver,
		currency: currency,
		rateChan: rateChan,
	}, nil
}

func (s *GeminiService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// geminiGenerator adapts a configured GenerativeModel to the Generator seam.
type geminiGenerator struct {
	model *genai.GenerativeModel
}

func (g *geminiGenerator) Generate(ctx context.Context, history []*genai.Content, parts ...genai.Part) (string, error) {
	cs := g.model.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	return extractText(resp), nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
