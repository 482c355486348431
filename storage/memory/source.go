// Package memory provides a DocumentSource held entirely in process memory.
// It is used by tests and by callers that embed a small fixed corpus.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
)

// Source is an in-memory storage.DocumentSource safe for concurrent use.
type Source struct {
	mu    sync.RWMutex
	docs  map[string]*core.Document
	order []string
	// sources holds the full text of source documents that are not
	// themselves retrieval candidates.
	sources map[string]string
}

var _ storage.DocumentSource = (*Source)(nil)

// NewSource creates a Source holding docs.
func NewSource(docs ...*core.Document) *Source {
	s := &Source{
		docs:    make(map[string]*core.Document),
		sources: make(map[string]string),
	}
	s.AddDocuments(docs...)
	return s
}

// AddDocuments adds or replaces candidate documents. Documents without an ID
// get a content-derived one.
func (s *Source) AddDocuments(docs ...*core.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		if doc.ID == "" {
			doc.ID = core.DocumentIDFromContent(doc.Content)
		}
		if _, exists := s.docs[doc.ID]; !exists {
			s.order = append(s.order, doc.ID)
		}
		s.docs[doc.ID] = doc
	}
}

// SetFullDocument registers the full text of a source document that is
// referenced by passages but not searchable itself.
func (s *Source) SetFullDocument(id, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[id] = content
}

// Len returns the number of candidate documents.
func (s *Source) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// FetchCandidates returns the documents matching filters in insertion order.
func (s *Source) FetchCandidates(ctx context.Context, filters map[string]any) ([]*core.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*core.Document, 0, len(s.order))
	for _, id := range s.order {
		doc := s.docs[id]
		if core.MatchesFilters(doc.Metadata, filters) {
			results = append(results, doc)
		}
	}
	return results, nil
}

// FetchFullDocument returns the full text for id. A passage resolves to its
// registered source text, falling back to its own content.
func (s *Source) FetchFullDocument(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if text, ok := s.sources[id]; ok {
		return text, nil
	}
	doc, ok := s.docs[id]
	if !ok {
		return "", fmt.Errorf("%w: document %s", storage.ErrNotFound, id)
	}
	if doc.SourceID != "" {
		if text, ok := s.sources[doc.SourceID]; ok {
			return text, nil
		}
		if parent, ok := s.docs[doc.SourceID]; ok {
			return parent.Content, nil
		}
	}
	return doc.Content, nil
}

// IDs returns the candidate IDs in sorted order.
func (s *Source) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
