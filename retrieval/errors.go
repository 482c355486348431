package retrieval

import "errors"

var (
	// ErrDocumentSourceRequired is returned when no document source is provided.
	ErrDocumentSourceRequired = errors.New("document source is required")

	// ErrSearcherRequired is returned when no searcher is provided.
	ErrSearcherRequired = errors.New("searcher is required")
)
