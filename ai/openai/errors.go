package openai

import "errors"

var (
	// ErrEmbeddingCount is returned when the service returns a different
	// number of vectors than texts sent.
	ErrEmbeddingCount = errors.New("embedding count mismatch")

	// ErrNoChoices is returned when a completion contains no choices.
	ErrNoChoices = errors.New("completion returned no choices")
)
