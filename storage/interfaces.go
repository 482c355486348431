package storage

import (
	"context"
	"time"

	"github.com/poiesic/quarry/core"
)

// DocumentSource supplies the candidate corpus for a query and resolves
// passages back to their full source documents.
// Implementations must be safe for concurrent reads.
type DocumentSource interface {
	// FetchCandidates returns every document eligible for retrieval whose
	// metadata satisfies filters. A nil or empty filter map matches all.
	FetchCandidates(ctx context.Context, filters map[string]any) ([]*core.Document, error)

	// FetchFullDocument returns the complete text of the document with the given ID.
	// Returns ErrNotFound if the document doesn't exist.
	FetchFullDocument(ctx context.Context, id string) (string, error)
}

type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

type DocumentRepository interface {
	Repository
	DocumentSource

	// AddDocuments stores one or more documents.
	// Documents with an empty ID get a content-derived ID.
	// Re-adding an existing ID replaces it but keeps its InsertedAt.
	// Returns the documents with IDs and timestamps populated.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// DeleteDocuments removes documents by their IDs.
	// Also removes associated indices.
	// Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, ids ...string) error

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id string) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing documents).
	GetDocuments(ctx context.Context, ids ...string) ([]*core.Document, error)

	// GetDocumentsByDateRange retrieves documents within a time range.
	// Returns documents where start <= Timestamp < end, ordered by timestamp.
	GetDocumentsByDateRange(ctx context.Context, start, end time.Time) ([]*core.Document, error)

	// GetPassages returns the passages whose SourceID is sourceID.
	GetPassages(ctx context.Context, sourceID string) ([]*core.Document, error)

	// CountDocuments returns the number of stored documents.
	CountDocuments(ctx context.Context) (int, error)
}
