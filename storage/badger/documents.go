package badger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (storage.DocumentRepository, error) {
	return newDocumentRepository(backend)
}

func newDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	if backend == nil {
		return nil, errors.New("badger backend required")
	}
	return &DocumentRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *DocumentRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddDocuments stores one or more documents.
func (r *DocumentRepository) AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	for _, doc := range docs {
		if err := core.ValidateDocument(doc); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, doc := range docs {
			if doc.ID == "" {
				doc.ID = core.DocumentIDFromContent(doc.Content)
			}
			key := makeDocumentKey(doc.ID)

			old, err := r.readDocument(tx, key)
			if err != nil {
				return err
			}
			if old != nil {
				doc.InsertedAt = old.InsertedAt
				if err := r.deleteIndices(tx, old); err != nil {
					return err
				}
			} else {
				doc.InsertedAt = now
			}
			doc.UpdatedAt = now

			// Store primary record
			value, err := storage.MarshalDocument(doc)
			if err != nil {
				return err
			}
			if err := tx.Set(key, value); err != nil {
				return err
			}
			if err := r.setIndices(tx, doc); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	r.backend.logger.Debug("stored documents", "count", len(docs))
	return docs, nil
}

// DeleteDocuments removes documents by their IDs.
func (r *DocumentRepository) DeleteDocuments(ctx context.Context, ids ...string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeDocumentKey(id)

			// Read document to get metadata for index cleanup
			doc, err := r.readDocument(tx, key)
			if err != nil {
				return err
			}
			if doc == nil {
				return fmt.Errorf("%w: document %s", storage.ErrNotFound, id)
			}
			if err := r.deleteIndices(tx, doc); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id string) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("%w: document %s", storage.ErrNotFound, id)
		}
		return nil
	}, false)
	return result, err
}

// GetDocuments retrieves multiple documents by their IDs.
func (r *DocumentRepository) GetDocuments(ctx context.Context, ids ...string) ([]*core.Document, error) {
	var result []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			doc, err := r.readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc != nil {
				result = append(result, doc)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetDocumentsByDateRange retrieves documents within a time range.
func (r *DocumentRepository) GetDocumentsByDateRange(ctx context.Context, start, end time.Time) ([]*core.Document, error) {
	if start.Equal(end) {
		end = start.Add(1 * time.Microsecond)
	}

	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialDocumentDateKey(start)
		endKey := makePartialDocumentDateKey(end)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.ValidForPrefix([]byte(documentDatePrefix)); iter.Next() {
			key := iter.Item().Key()
			if slices.Compare(key, endKey) >= 0 {
				break
			}

			id := string(key[len(endKey):])
			doc, err := r.readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc != nil {
				results = append(results, doc)
			}
		}
		return nil
	}, false)
	return results, err
}

// GetPassages returns the passages of a source document in key order.
func (r *DocumentRepository) GetPassages(ctx context.Context, sourceID string) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialDocumentSourceKey(sourceID)
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			id := string(iter.Item().Key()[len(prefix):])
			doc, err := r.readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc != nil {
				results = append(results, doc)
			}
		}
		return nil
	}, false)
	return results, err
}

// CountDocuments returns the number of stored documents.
func (r *DocumentRepository) CountDocuments(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(documentPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// FetchCandidates returns every retrievable document matching filters.
// Source documents that have been split into passages are represented by
// their passages and are not returned themselves.
func (r *DocumentRepository) FetchCandidates(ctx context.Context, filters map[string]any) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var doc *core.Document
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			}); err != nil {
				return err
			}
			if !core.MatchesFilters(doc.Metadata, filters) {
				continue
			}

			hasPassages, err := r.hasPassages(tx, documentIDFromKey(iter.Item().Key()))
			if err != nil {
				return err
			}
			if !hasPassages {
				results = append(results, doc)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	r.backend.logger.Debug("fetched candidates", "count", len(results), "filters", len(filters))
	return results, nil
}

// FetchFullDocument returns the full text for id. Passages resolve to their
// source document when it is stored.
func (r *DocumentRepository) FetchFullDocument(ctx context.Context, id string) (string, error) {
	var content string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		doc, err := r.readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if doc == nil {
			return fmt.Errorf("%w: document %s", storage.ErrNotFound, id)
		}
		content = doc.Content

		if doc.SourceID == "" || doc.SourceID == doc.ID {
			return nil
		}
		parent, err := r.readDocument(tx, makeDocumentKey(doc.SourceID))
		if err != nil {
			return err
		}
		if parent != nil {
			content = parent.Content
		}
		return nil
	}, false)
	return content, err
}

// Helper methods

// readDocument reads a document from the transaction.
func (r *DocumentRepository) readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}

func (r *DocumentRepository) hasPassages(tx *badger.Txn, id string) (bool, error) {
	prefix := makePartialDocumentSourceKey(id)
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()
	iter.Rewind()
	return iter.Valid(), nil
}

// setIndices writes the date and passage index entries for doc.
func (r *DocumentRepository) setIndices(tx *badger.Txn, doc *core.Document) error {
	if err := tx.Set(makeDocumentDateKey(doc.Timestamp, doc.ID), nil); err != nil {
		return err
	}
	if doc.SourceID != "" && doc.SourceID != doc.ID {
		if err := tx.Set(makeDocumentSourceKey(doc.SourceID, doc.ID), nil); err != nil {
			return err
		}
	}
	return nil
}

// deleteIndices removes the date and passage index entries for doc.
func (r *DocumentRepository) deleteIndices(tx *badger.Txn, doc *core.Document) error {
	if err := tx.Delete(makeDocumentDateKey(doc.Timestamp, doc.ID)); err != nil {
		return err
	}
	if doc.SourceID != "" && doc.SourceID != doc.ID {
		if err := tx.Delete(makeDocumentSourceKey(doc.SourceID, doc.ID)); err != nil {
			return err
		}
	}
	return nil
}
