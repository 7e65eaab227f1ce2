package models

// Vision item categories. Extraction drops anything outside this set.
const (
	CategoryPlace      = "place"
	CategoryItem       = "item"
	CategoryExperience = "experience"
)

// ValidCategory reports whether c is one of the three allowed categories.
func ValidCategory(c string) bool {
	return c == CategoryPlace || c == CategoryItem || c == CategoryExperience
}

// CostLine is one row of an itemized cost breakdown.
type CostLine struct {
	Item   string  `json:"item"`
	Amount float64 `json:"amount"`
}

// VisionItem is a single structured goal derived from conversation.
// ImageURL and AdditionalImages always hold fully-formed image-service URLs;
// raw keyword strings from the model never leave the extraction engine.
type VisionItem struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Category         string   `json:"category"`
	TargetDate       string   `json:"target_date"` // YYYY-MM
	EstimatedCost    float64  `json:"estimated_cost"`
	Currency         string   `json:"currency"`
	ImageURL         string   `json:"image_url"`
	FallbackImageURL string   `json:"fallback_image_url"`
	AdditionalImages []string `json:"additional_images"`
	// AdditionalImageFallbacks pairs with AdditionalImages by index, one
	// replacement URL per slot.
	AdditionalImageFallbacks []string   `json:"additional_image_fallbacks,omitempty"`
	Details                  string     `json:"details,omitempty"`
	Specs                    string     `json:"specs,omitempty"`
	CostBreakdown            []CostLine `json:"cost_breakdown,omitempty"`
	IsAchieved               bool       `json:"is_achieved"`
	AchievementDate          *string    `json:"achievement_date,omitempty"` // YYYY-MM-DD
}

// UpdateVisionItemRequest carries the editable fields of a vision item.
// Nil pointers leave the corresponding field untouched.
type UpdateVisionItemRequest struct {
	Title         *string  `json:"title"`
	TargetDate    *string  `json:"target_date"`
	EstimatedCost *float64 `json:"estimated_cost"`
	Details       *string  `json:"details"`
	Specs         *string  `json:"specs"`
}

// BoardResponse is the reply from board generation and board reads.
type BoardResponse struct {
	Items []VisionItem `json:"items"`
}
