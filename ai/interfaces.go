package ai

import (
	"context"

	"github.com/poiesic/quarry/core"
)

// Embedder generates vector embeddings from text.
// Implementations must be safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces answer text grounded in a set of sources.
// Implementations must be safe for concurrent use.
type Generator interface {
	// Complete generates a response to prompt using sources as grounding
	// material. maxTokens bounds the completion length and temperature
	// controls sampling randomness.
	// Returns an error if the completion service fails.
	Complete(ctx context.Context, prompt string, sources []*core.EnhancedContext, maxTokens int, temperature float64) (*Completion, error)
}

// Completion is the result of a single Generator call.
type Completion struct {
	// Text is the generated response.
	Text string

	// TokensUsed is the number of completion tokens reported by the service,
	// or 0 when the service does not report usage.
	TokensUsed int

	// FinishReason is why generation stopped, e.g. "stop" or "length".
	FinishReason string

	// Model is the model that produced the completion.
	Model string
}

// AIProvider aggregates the AI services used by the pipeline.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Generator returns the text completion service.
	// The returned Generator is safe for concurrent use.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
