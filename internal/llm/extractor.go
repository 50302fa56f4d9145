package llm

import (
	"context"
	"fmt"
)

// TextDelimiter separates the goal instruction from the page text in extraction prompts.
const TextDelimiter = "\n\nHere is the text:\n---\n"

// BuildExtractionPrompt joins a goal instruction and page text into one prompt.
func BuildExtractionPrompt(instruction, text string) string {
	return instruction + TextDelimiter + text
}

// Extractor runs goal instructions against page text with one Client.
type Extractor struct {
	client Client
	tier   ModelTier
}

// NewExtractor returns an Extractor using client at tier.
func NewExtractor(client Client, tier ModelTier) *Extractor {
	if tier == "" {
		tier = TierStandard
	}
	return &Extractor{client: client, tier: tier}
}

// Extract sends one single-shot extraction request and returns the reply with
// code fences removed. The reply is otherwise untouched.
func (e *Extractor) Extract(ctx context.Context, instruction, text string) (string, error) {
	raw, err := e.client.GenerateContent(ctx, BuildExtractionPrompt(instruction, text), e.tier)
	if err != nil {
		return "", fmt.Errorf("extraction request failed: %w", err)
	}
	return CleanJSONBlock(raw), nil
}
