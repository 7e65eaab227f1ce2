package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"

	"visionboard-backend/internal/models"
)

// rawVisionItem mirrors the extraction response schema. Its image fields carry
// the model's raw search keywords, never URLs; normalization happens locally.
type rawVisionItem struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Category         string   `json:"category"`
	TargetDate       string   `json:"target_date"`
	EstimatedCost    float64  `json:"estimated_cost"`
	ImageURL         string   `json:"image_url"`
	AdditionalImages []string `json:"additional_images"`
	Details          string   `json:"details"`
	Specs            string   `json:"specs"`
}

func visionSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"id":       {Type: genai.TypeString},
				"title":    {Type: genai.TypeString},
				"category": {Type: genai.TypeString, Enum: []string{models.CategoryPlace, models.CategoryItem, models.CategoryExperience}},
				"target_date": {
					Type:        genai.TypeString,
					Description: "Target year and month, YYYY-MM",
				},
				"estimated_cost": {Type: genai.TypeNumber},
				"image_url": {
					Type:        genai.TypeString,
					Description: "Two space-separated English search keywords depicting the dream",
				},
				"additional_images": {
					Type:        genai.TypeArray,
					Items:       &genai.Schema{Type: genai.TypeString},
					Description: "Four English keyword phrases, each a different mood or angle",
				},
				"details": {Type: genai.TypeString},
				"specs":   {Type: genai.TypeString},
			},
			Required: []string{"id", "title", "category", "target_date", "estimated_cost", "image_url"},
		},
	}
}

// Extract reads the flattened transcript and returns the normalized vision
// items it describes. An empty slice is a valid result for a transcript with
// no extractable goals; malformed model output is an error, never a partial
// list. Each call produces a fresh batch.
func (s *GeminiService) Extract(ctx context.Context, transcript string) ([]models.VisionItem, error) {
	if err := s.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseRate()

	raw, err := s.extract.Generate(ctx, nil, genai.Text(buildExtractionPrompt(transcript)))
	if err != nil {
		return nil, fmt.Errorf("extraction request failed: %w", err)
	}

	return s.parseVisionItems(raw)
}

func (s *GeminiService) parseVisionItems(raw string) ([]models.VisionItem, error) {
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	// An empty response body counts as "nothing extractable"
	if raw == "" {
		return []models.VisionItem{}, nil
	}

	var rawItems []rawVisionItem
	if err := json.Unmarshal([]byte(raw), &rawItems); err != nil {
		return nil, fmt.Errorf("failed to parse extraction response: %w", err)
	}

	items := make([]models.VisionItem, 0, len(rawItems))
	for _, r := range rawItems {
		if !models.ValidCategory(r.Category) {
			log.Printf("WARNING: dropping extracted item %q with invalid category %q", r.Title, r.Category)
			continue
		}

		id := r.ID
		if id == "" {
			// The schema requires an id, but sig derivation must never see an
			// empty one
			id = uuid.NewString()
		}

		additional := make([]string, 0, len(r.AdditionalImages))
		fallbacks := make([]string, 0, len(r.AdditionalImages))
		for i, kw := range r.AdditionalImages {
			additional = append(additional, s.deriver.AdditionalURL(kw, id, i))
			fallbacks = append(fallbacks, s.deriver.AdditionalFallbackURL(id, i))
		}

		items = append(items, models.VisionItem{
			ID:                       id,
			Title:                    r.Title,
			Category:                 r.Category,
			TargetDate:               r.TargetDate,
			EstimatedCost:            r.EstimatedCost,
			Currency:                 s.currency,
			ImageURL:                 s.deriver.PrimaryURL(r.ImageURL, id),
			FallbackImageURL:         s.deriver.FallbackURL(id),
			AdditionalImages:         additional,
			AdditionalImageFallbacks: fallbacks,
			Details:                  r.Details,
			Specs:                    r.Specs,
			CostBreakdown:            parseCostLines(r.Details),
		})
	}

	return items, nil
}

var costAmount = regexp.MustCompile(`[0-9][0-9,]*(?:\.[0-9]+)?`)

// parseCostLines pulls itemized cost lines out of free-text details. The
// coaching format lists them under a "[Cost Breakdown]" heading as bulleted
// "label: amount ..." lines; lines that don't fit that shape are skipped
// rather than treated as an error.
func parseCostLines(details string) []models.CostLine {
	section := details
	if i := strings.Index(details, "[Cost Breakdown]"); i >= 0 {
		section = details[i+len("[Cost Breakdown]"):]
		// Stop at the next [Section] heading, if any
		if j := strings.Index(section, "\n["); j >= 0 {
			section = section[:j]
		}
	}

	var lines []models.CostLine
	for _, line := range strings.Split(section, "\n") {
		line = strings.Trim(line, "-*• \t")
		colon := strings.Index(line, ":")
		if colon < 0 {
			continue
		}
		label := strings.TrimSpace(line[:colon])
		amountStr := costAmount.FindString(line[colon+1:])
		if label == "" || amountStr == "" {
			continue
		}
		amount, err := strconv.ParseFloat(strings.ReplaceAll(amountStr, ",", ""), 64)
		if err != nil || amount <= 0 {
			continue
		}
		lines = append(lines, models.CostLine{Item: label, Amount: amount})
	}

	return lines
}
