package retrieval

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/quarry/ai/mock"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/search"
	"github.com/poiesic/quarry/storage"
	"github.com/poiesic/quarry/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSearcher returns fixed results regardless of the query.
type stubSearcher struct {
	results []*core.SearchResult
	err     error
	calls   atomic.Int64
}

func (s *stubSearcher) Search(_ context.Context, _ string, _ []*core.Document, _ map[string]any) (*search.Results, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &search.Results{Results: s.results}, nil
}

// failingSource wraps a source and fails selected calls.
type failingSource struct {
	storage.DocumentSource
	fetchErr error
	fullErr  map[string]error
}

func (f *failingSource) FetchCandidates(ctx context.Context, filters map[string]any) ([]*core.Document, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.DocumentSource.FetchCandidates(ctx, filters)
}

func (f *failingSource) FetchFullDocument(ctx context.Context, id string) (string, error) {
	if err, ok := f.fullErr[id]; ok {
		return "", err
	}
	return f.DocumentSource.FetchFullDocument(ctx, id)
}

func result(id, content string, score float64) *core.SearchResult {
	return &core.SearchResult{ID: id, Content: content, Score: score, Source: core.SourceHybrid}
}

func newRetriever(t *testing.T, source storage.DocumentSource, searcher Searcher, opts ...Option) *ContextRetriever {
	t.Helper()
	r, err := NewContextRetriever(source, searcher, opts...)
	require.NoError(t, err)
	t.Cleanup(r.Release)
	return r
}

func TestNewContextRetriever(t *testing.T) {
	source := memory.NewSource()
	searcher := &stubSearcher{}

	t.Run("defaults", func(t *testing.T) {
		r := newRetriever(t, source, searcher)
		assert.Equal(t, *DefaultConfig(), r.Config())
	})

	t.Run("nil source", func(t *testing.T) {
		_, err := NewContextRetriever(nil, searcher)
		assert.Equal(t, ErrDocumentSourceRequired, err)
	})

	t.Run("nil searcher", func(t *testing.T) {
		_, err := NewContextRetriever(source, nil)
		assert.Equal(t, ErrSearcherRequired, err)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.K = 0
		_, err := NewContextRetriever(source, searcher, WithConfig(cfg))
		assert.Error(t, err)
	})

	t.Run("nil logger falls back to default", func(t *testing.T) {
		r := newRetriever(t, source, searcher, WithLogger(nil))
		assert.NotNil(t, r.logger)
	})
}

func TestRetrieve_FiltersAndTruncates(t *testing.T) {
	source := memory.NewSource(
		&core.Document{ID: "a", Content: "alpha"},
		&core.Document{ID: "b", Content: "beta"},
		&core.Document{ID: "c", Content: "gamma"},
		&core.Document{ID: "d", Content: "delta"},
	)
	searcher := &stubSearcher{results: []*core.SearchResult{
		result("a", "alpha", 0.9),
		result("b", "beta", 0.8),
		result("c", "gamma", 0.3),
		result("d", "delta", 0.29),
	}}
	r := newRetriever(t, source, searcher)

	t.Run("drops results below the relevance floor", func(t *testing.T) {
		contexts, err := r.Retrieve(context.Background(), "q", nil, 10)
		require.NoError(t, err)
		require.Len(t, contexts, 3)
		assert.Equal(t, "a", contexts[0].SourceDocID)
		assert.Equal(t, "b", contexts[1].SourceDocID)
		assert.Equal(t, "c", contexts[2].SourceDocID)
	})

	t.Run("truncates to k", func(t *testing.T) {
		contexts, err := r.Retrieve(context.Background(), "q", nil, 2)
		require.NoError(t, err)
		require.Len(t, contexts, 2)
		assert.Equal(t, 0.9, contexts[0].RelevanceScore)
	})

	t.Run("k <= 0 uses default", func(t *testing.T) {
		contexts, err := r.Retrieve(context.Background(), "q", nil, 0)
		require.NoError(t, err)
		assert.Len(t, contexts, 3)
	})
}

func TestRetrieve_BuildsWindows(t *testing.T) {
	full := strings.Repeat("a", 3000) + " the matched passage " + strings.Repeat("b", 3000)
	ts := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	source := memory.NewSource(&core.Document{
		ID:        "p1",
		SourceID:  "book",
		Content:   "the matched passage",
		Timestamp: ts,
		Metadata:  map[string]any{"title": "Book"},
	})
	source.SetFullDocument("book", full)

	searcher := &stubSearcher{results: []*core.SearchResult{
		{ID: "p1", Content: "the matched passage", Score: 0.8, Metadata: map[string]any{"title": "Book"}},
	}}
	r := newRetriever(t, source, searcher)

	contexts, err := r.Retrieve(context.Background(), "passage", nil, 5)
	require.NoError(t, err)
	require.Len(t, contexts, 1)

	c := contexts[0]
	assert.Equal(t, "book", c.SourceDocID)
	assert.True(t, ts.Equal(c.Timestamp))
	assert.Equal(t, "Book", c.Metadata["title"])

	matchStart := 3001
	assert.Equal(t, matchStart-1200, c.Window.StartPos)
	assert.Equal(t, matchStart+len("the matched passage")+1200, c.Window.EndPos)
	assert.Equal(t, strings.Repeat("a", 1199), c.Window.Previous)
	assert.Equal(t, strings.Repeat("b", 1199), c.Window.Next)
}

func TestRetrieve_EnhancementFailuresKeepContext(t *testing.T) {
	base := memory.NewSource(
		&core.Document{ID: "ok", Content: "found here"},
		&core.Document{ID: "broken", Content: "cannot load"},
		&core.Document{ID: "moved", Content: "not in text"},
	)
	base.SetFullDocument("moved", "completely different text")
	source := &failingSource{
		DocumentSource: base,
		fullErr:        map[string]error{"broken": errors.New("disk on fire")},
	}
	searcher := &stubSearcher{results: []*core.SearchResult{
		result("ok", "found here", 0.9),
		result("broken", "cannot load", 0.8),
		result("moved", "not in text", 0.7),
	}}
	r := newRetriever(t, source, searcher)

	contexts, err := r.Retrieve(context.Background(), "q", nil, 5)
	require.NoError(t, err)
	require.Len(t, contexts, 3)

	assert.False(t, contexts[0].Window.IsEmpty())
	assert.True(t, contexts[1].Window.IsEmpty())
	assert.Equal(t, "cannot load", contexts[1].Content)
	assert.True(t, contexts[2].Window.IsEmpty())
	assert.Equal(t, "not in text", contexts[2].Content)
}

func TestRetrieve_UpstreamFailures(t *testing.T) {
	t.Run("candidate fetch", func(t *testing.T) {
		source := &failingSource{DocumentSource: memory.NewSource(), fetchErr: errors.New("offline")}
		searcher := &stubSearcher{}
		r := newRetriever(t, source, searcher)

		_, err := r.Retrieve(context.Background(), "q", nil, 5)
		assert.ErrorIs(t, err, core.ErrRetrieval)
		assert.Contains(t, err.Error(), "offline")
		assert.Zero(t, searcher.calls.Load())
	})

	t.Run("search", func(t *testing.T) {
		searcher := &stubSearcher{err: errors.New("embedder down")}
		r := newRetriever(t, memory.NewSource(), searcher)

		_, err := r.Retrieve(context.Background(), "q", nil, 5)
		assert.ErrorIs(t, err, core.ErrRetrieval)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		r := newRetriever(t, memory.NewSource(), &stubSearcher{})

		_, err := r.Retrieve(ctx, "q", nil, 5)
		assert.ErrorIs(t, err, core.ErrRetrieval)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRetrieve_WithHybridSearcher(t *testing.T) {
	source := memory.NewSource(
		&core.Document{ID: "A", Content: "Python is a programming language"},
		&core.Document{ID: "B", Content: "Snakes live in many habitats"},
		&core.Document{ID: "C", Content: "Coffee is brewed from roasted beans"},
	)
	searcher, err := search.NewHybridSearcher(mock.NewMockEmbedder())
	require.NoError(t, err)
	r := newRetriever(t, source, searcher)

	contexts, err := r.Retrieve(context.Background(), "What is Python?", nil, 5)
	require.NoError(t, err)
	require.NotEmpty(t, contexts)
	assert.Equal(t, "A", contexts[0].SourceDocID)
	assert.False(t, contexts[0].Window.IsEmpty())
}
