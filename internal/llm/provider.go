package llm

import (
	"context"

	"docuchat/backend/internal/model"
)

// StreamChunk is a LOCAL type for the llm package: one incremental fragment
// of a streamed generation. Content may be empty when the provider's safety
// filter suppressed the candidate text for that event; consumers skip such
// chunks without aborting the stream.
type StreamChunk struct {
	Content string
	Done    bool
}

// Provider defines the interface to the generation backend. Both calls
// re-transmit the full segment payload; nothing is cached locally.
type Provider interface {
	// CountTokens returns the provider's token estimate for the assembled
	// request. Display-only telemetry, never used for admission control.
	CountTokens(ctx context.Context, req *GenerateRequest) (int, error)

	// GenerateStream runs a streaming completion, pushing fragments into ch
	// as they arrive. The provider closes ch when the stream ends, then the
	// return value reports whether it ended cleanly.
	GenerateStream(ctx context.Context, req *GenerateRequest, ch chan<- StreamChunk) error
}

// GenerateRequest is the immutable value built fresh for every turn.
type GenerateRequest struct {
	Model             string
	APIKey            string
	Segments          []model.ContentSegment
	SystemInstruction string
	Temperature       float32
	SafetySettings    []SafetySetting
}

// SafetySetting is one provider-side content-filter threshold.
type SafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// DefaultSafetySettings blocks only high-severity content across the four
// harm categories, so legitimate document content is not filtered away.
func DefaultSafetySettings() []SafetySetting {
	categories := []string{
		"HARM_CATEGORY_HARASSMENT",
		"HARM_CATEGORY_HATE_SPEECH",
		"HARM_CATEGORY_SEXUALLY_EXPLICIT",
		"HARM_CATEGORY_DANGEROUS_CONTENT",
	}
	settings := make([]SafetySetting, 0, len(categories))
	for _, c := range categories {
		settings = append(settings, SafetySetting{Category: c, Threshold: "BLOCK_ONLY_HIGH"})
	}
	return settings
}
