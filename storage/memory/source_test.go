package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_FetchCandidates(t *testing.T) {
	ctx := context.Background()
	src := NewSource(
		&core.Document{ID: "b", Content: "second", Metadata: map[string]any{"meta": map[string]any{"lang": "en"}}},
		&core.Document{ID: "a", Content: "first", Metadata: map[string]any{"meta": map[string]any{"lang": "de"}}},
		nil,
	)
	assert.Equal(t, 2, src.Len())

	t.Run("insertion order", func(t *testing.T) {
		docs, err := src.FetchCandidates(ctx, nil)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "b", docs[0].ID)
		assert.Equal(t, "a", docs[1].ID)
	})

	t.Run("dotted filter", func(t *testing.T) {
		docs, err := src.FetchCandidates(ctx, map[string]any{"meta.lang": "de"})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "a", docs[0].ID)
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := src.FetchCandidates(cctx, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSource_ReplaceKeepsOrder(t *testing.T) {
	src := NewSource(&core.Document{ID: "x", Content: "one"}, &core.Document{ID: "y", Content: "two"})
	src.AddDocuments(&core.Document{ID: "x", Content: "uno"})

	docs, err := src.FetchCandidates(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "uno", docs[0].Content)
	assert.Equal(t, []string{"x", "y"}, src.IDs())
}

func TestSource_ContentDerivedID(t *testing.T) {
	doc := &core.Document{Content: "hello"}
	NewSource(doc)
	assert.Equal(t, core.DocumentIDFromContent("hello"), doc.ID)
}

func TestSource_FetchFullDocument(t *testing.T) {
	ctx := context.Background()
	src := NewSource(
		&core.Document{ID: "p1", SourceID: "book", Content: "chapter one"},
		&core.Document{ID: "p2", SourceID: "article", Content: "para"},
		&core.Document{ID: "article", Content: "the full article"},
		&core.Document{ID: "lone", Content: "standalone"},
	)
	src.SetFullDocument("book", "the whole book")

	tests := []struct {
		id   string
		want string
	}{
		{"p1", "the whole book"},
		{"book", "the whole book"},
		{"p2", "the full article"},
		{"lone", "standalone"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := src.FetchFullDocument(ctx, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := src.FetchFullDocument(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSource_ConcurrentAccess(t *testing.T) {
	src := NewSource()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			src.AddDocuments(&core.Document{Content: string(rune('a' + i))})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = src.FetchCandidates(context.Background(), nil)
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, src.Len())
}
