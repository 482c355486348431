package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/search"
	"github.com/poiesic/quarry/storage"
)

// Searcher ranks candidate documents against a query.
// *search.HybridSearcher satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, candidates []*core.Document, filters map[string]any) (*search.Results, error)
}

// ContextRetriever finds relevant passages and reconstructs their context.
type ContextRetriever struct {
	source   storage.DocumentSource
	searcher Searcher
	config   Config
	pool     *ants.Pool
	logger   *slog.Logger
}

// Option configures a ContextRetriever.
type Option func(*ContextRetriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *ContextRetriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithConfig replaces the default configuration.
func WithConfig(config *Config) Option {
	return func(r *ContextRetriever) error {
		if config == nil {
			return nil
		}
		if err := config.Validate(); err != nil {
			return err
		}
		r.config = *config
		return nil
	}
}

// NewContextRetriever creates a retriever over source ranked by searcher.
// Call Release when done to free the worker pool.
func NewContextRetriever(source storage.DocumentSource, searcher Searcher, opts ...Option) (*ContextRetriever, error) {
	if source == nil {
		return nil, ErrDocumentSourceRequired
	}
	if searcher == nil {
		return nil, ErrSearcherRequired
	}

	r := &ContextRetriever{
		source:   source,
		searcher: searcher,
		config:   *DefaultConfig(),
		logger:   slog.Default().With("component", "retriever"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	pool, err := ants.NewPool(r.config.PoolSize)
	if err != nil {
		return nil, err
	}
	r.pool = pool
	return r, nil
}

// Config returns a copy of the active configuration.
func (r *ContextRetriever) Config() Config {
	return r.config
}

// Release frees the worker pool. The retriever must not be used afterwards.
func (r *ContextRetriever) Release() {
	if r.pool != nil {
		r.pool.Release()
	}
}

// Retrieve returns up to k contexts for query, best first. k <= 0 uses the
// configured default. Only candidate fetch and search failures are returned
// as errors; they wrap core.ErrRetrieval.
func (r *ContextRetriever) Retrieve(ctx context.Context, query string, filters map[string]any, k int) ([]*core.EnhancedContext, error) {
	if k <= 0 {
		k = r.config.K
	}

	candidates, err := r.source.FetchCandidates(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch candidates: %w", core.ErrRetrieval, err)
	}

	found, err := r.searcher.Search(ctx, query, candidates, filters)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", core.ErrRetrieval, err)
	}

	relevant := make([]*core.SearchResult, 0, len(found.Results))
	for _, result := range found.Results {
		if result.Score >= r.config.MinRelevanceScore {
			relevant = append(relevant, result)
		}
	}
	if len(relevant) > k {
		relevant = relevant[:k]
	}

	byID := make(map[string]*core.Document, len(candidates))
	for _, doc := range candidates {
		byID[doc.ID] = doc
	}

	contexts := make([]*core.EnhancedContext, len(relevant))
	var wg sync.WaitGroup
	for i, result := range relevant {
		contexts[i] = newContext(result, byID[result.ID])
		wg.Add(1)
		task := func() {
			defer wg.Done()
			r.enhance(ctx, result.ID, contexts[i])
		}
		if err := r.pool.Submit(task); err != nil {
			r.logger.Warn("worker pool unavailable, enhancing inline", "err", err)
			task()
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrRetrieval, err)
	}

	r.logger.Debug("retrieved contexts",
		"candidates", len(candidates),
		"results", len(found.Results),
		"relevant", len(contexts))
	return contexts, nil
}

func newContext(result *core.SearchResult, doc *core.Document) *core.EnhancedContext {
	c := &core.EnhancedContext{
		Content:        result.Content,
		Metadata:       result.Metadata,
		RelevanceScore: result.Score,
		SourceDocID:    result.ID,
	}
	if doc != nil {
		c.SourceDocID = doc.SourceDocID()
		c.Timestamp = doc.Timestamp
	}
	return c
}

// enhance fills in the context window. Failures leave the window empty.
func (r *ContextRetriever) enhance(ctx context.Context, id string, c *core.EnhancedContext) {
	full, err := r.source.FetchFullDocument(ctx, id)
	if err != nil {
		r.logger.Warn("could not fetch source document", "id", id, "err", err)
		return
	}
	window, ok := BuildWindow(full, c.Content, r.config.WindowSize())
	if !ok {
		r.logger.Warn("passage not found in source document", "id", id, "source", c.SourceDocID)
		return
	}
	c.Window = window
}
