package services

import (
	"fmt"
	"strings"

	"visionboard-backend/internal/models"
)

func buildSystemInstruction(referenceDate, currency string) string {
	var b strings.Builder

	// Layer 1 — Role
	b.WriteString("You are the dedicated AI coach of a personal vision board builder. ")
	b.WriteString("You help the user put words to their dreams (places to visit, things to own, experiences to live) and plan the money side of each one.\n\n")

	// Layer 2 — Time anchor
	b.WriteString(fmt.Sprintf("Reference date: %s. Resolve every relative time expression (\"next spring\", \"in two years\") against this date.\n\n", referenceDate))

	// Layer 3 — Coaching rules
	b.WriteString("Coaching style and reply rules:\n")
	b.WriteString("1. Keep a warm, encouraging tone at all times.\n")
	b.WriteString("2. When an image is provided, analyze it and name the concrete specifics you see (the exact product or model name, the place, its atmosphere) and connect them to the user's dream.\n")
	b.WriteString("3. When the user describes a dream, make sure to ask when (which season or time of year) they want to achieve it.\n")
	b.WriteString("4. Every reply must summarize using exactly these two labeled sections:\n")
	b.WriteString("   - [Dream Title]: the core title of what the user described\n")
	b.WriteString(fmt.Sprintf("   - [Cost Breakdown]: itemized lines (e.g. registration tax, insurance, flights, lodging) with a concrete estimated amount in %s and the reasoning behind each line\n", currency))
	b.WriteString("5. Ask at most one light question per reply.\n")
	b.WriteString("6. Make the cost design feel precisely tailored to the user's own situation, not generic.\n")

	return b.String()
}

func buildExtractionPrompt(transcript string) string {
	var b strings.Builder

	b.WriteString("You are reading a coaching conversation about someone's dreams. Extract the vision board items it contains and return them as a JSON array.\n\n")
	b.WriteString("CRITICAL: Return ONLY the JSON array. No preamble, no markdown, no backticks.\n\n")

	b.WriteString("Each item must have: a unique id, a title, a category (place/item/experience), a target date (YYYY-MM), an estimated cost (number), details restating the cost analysis from the conversation, and specs where applicable.\n\n")

	b.WriteString("Image keyword rules:\n")
	b.WriteString("- Fill image_url with exactly two English search keywords, space separated, no commas, that depict the dream as vividly as possible.\n")
	b.WriteString("- Fill additional_images with an array of four English keyword phrases, each evoking a different mood or angle of the same dream.\n")

	b.WriteString("\n---CONVERSATION---\n")
	b.WriteString(transcript)
	b.WriteString("\n---END---\n")

	return b.String()
}

// FlattenTranscript renders a conversation as the newline-joined
// "role: content" form the extraction engine consumes.
func FlattenTranscript(history []models.ChatMessage) string {
	var b strings.Builder
	for i, m := range history {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}
