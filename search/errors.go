package search

import "errors"

var (
	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrEmbeddingMismatch is returned when the embedder returns a different
	// number of vectors than texts it was given.
	ErrEmbeddingMismatch = errors.New("embedding count mismatch")
)
