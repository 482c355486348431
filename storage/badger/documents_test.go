package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) storage.DocumentRepository {
	t.Helper()
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func TestDocumentRepository_AddAndGet(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	now := time.Now().UTC().Add(-time.Hour)

	docs, err := repo.AddDocuments(ctx, &core.Document{
		Content:   "Python is a programming language.",
		Metadata:  map[string]any{"title": "Python"},
		Timestamp: now,
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, core.DocumentIDFromContent("Python is a programming language."), docs[0].ID)
	assert.False(t, docs[0].InsertedAt.IsZero())

	got, err := repo.GetDocument(ctx, docs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Python is a programming language.", got.Content)
	assert.Equal(t, "Python", got.Metadata["title"])
	assert.True(t, now.Equal(got.Timestamp))
}

func TestDocumentRepository_UpsertKeepsInsertedAt(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	ts := time.Now().UTC().Add(-time.Hour)

	first, err := repo.AddDocuments(ctx, &core.Document{ID: "a", Content: "first", Timestamp: ts})
	require.NoError(t, err)
	inserted := first[0].InsertedAt

	time.Sleep(2 * time.Millisecond)
	_, err = repo.AddDocuments(ctx, &core.Document{ID: "a", Content: "second", Timestamp: ts.Add(time.Minute)})
	require.NoError(t, err)

	got, err := repo.GetDocument(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Content)
	assert.True(t, inserted.Equal(got.InsertedAt))
	assert.True(t, got.UpdatedAt.After(inserted))

	// The old date index entry must be gone
	found, err := repo.GetDocumentsByDateRange(ctx, ts, ts.Add(time.Second))
	require.NoError(t, err)
	assert.Empty(t, found)

	count, err := repo.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDocumentRepository_AddInvalid(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	_, err := repo.AddDocuments(ctx, &core.Document{Content: "  "})
	assert.ErrorIs(t, err, core.ErrEmptyContent)

	_, err = repo.AddDocuments(ctx, &core.Document{Content: "x", Timestamp: time.Now().Add(time.Hour)})
	assert.ErrorIs(t, err, core.ErrInvalidTimestamp)

	count, err := repo.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDocumentRepository_Delete(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	ts := time.Now().UTC().Add(-time.Hour)

	_, err := repo.AddDocuments(ctx,
		&core.Document{ID: "src", Content: "full text", Timestamp: ts},
		&core.Document{ID: "p1", SourceID: "src", Content: "passage", Timestamp: ts},
	)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteDocuments(ctx, "p1"))

	_, err = repo.GetDocument(ctx, "p1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	passages, err := repo.GetPassages(ctx, "src")
	require.NoError(t, err)
	assert.Empty(t, passages)

	err = repo.DeleteDocuments(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDocumentRepository_GetDocumentsSkipsMissing(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	_, err := repo.AddDocuments(ctx, &core.Document{ID: "a", Content: "alpha"})
	require.NoError(t, err)

	docs, err := repo.GetDocuments(ctx, "a", "b")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a", docs[0].ID)
}

func TestDocumentRepository_DateRange(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"d0", "d1", "d2", "d3"} {
		_, err := repo.AddDocuments(ctx, &core.Document{
			ID:        id,
			Content:   "content " + id,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	docs, err := repo.GetDocumentsByDateRange(ctx, base.Add(time.Hour), base.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "d1", docs[0].ID)
	assert.Equal(t, "d2", docs[1].ID)

	t.Run("same start and end", func(t *testing.T) {
		docs, err := repo.GetDocumentsByDateRange(ctx, base, base)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "d0", docs[0].ID)
	})
}

func TestDocumentRepository_FetchCandidates(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	_, err := repo.AddDocuments(ctx,
		&core.Document{ID: "guide", Content: "the whole guide", Metadata: map[string]any{"lang": "en"}},
		&core.Document{ID: "guide-1", SourceID: "guide", Content: "part one", Metadata: map[string]any{"lang": "en"}},
		&core.Document{ID: "guide-2", SourceID: "guide", Content: "part two", Metadata: map[string]any{"lang": "en"}},
		&core.Document{ID: "note", Content: "standalone note", Metadata: map[string]any{"lang": "de"}},
	)
	require.NoError(t, err)

	t.Run("no filters", func(t *testing.T) {
		docs, err := repo.FetchCandidates(ctx, nil)
		require.NoError(t, err)
		ids := make([]string, 0, len(docs))
		for _, d := range docs {
			ids = append(ids, d.ID)
		}
		assert.ElementsMatch(t, []string{"guide-1", "guide-2", "note"}, ids)
	})

	t.Run("metadata filter", func(t *testing.T) {
		docs, err := repo.FetchCandidates(ctx, map[string]any{"lang": "de"})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "note", docs[0].ID)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := repo.FetchCandidates(cctx, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDocumentRepository_FetchFullDocument(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	_, err := repo.AddDocuments(ctx,
		&core.Document{ID: "guide", Content: "the whole guide"},
		&core.Document{ID: "guide-1", SourceID: "guide", Content: "part one"},
		&core.Document{ID: "orphan", SourceID: "gone", Content: "orphan passage"},
	)
	require.NoError(t, err)

	text, err := repo.FetchFullDocument(ctx, "guide-1")
	require.NoError(t, err)
	assert.Equal(t, "the whole guide", text)

	text, err = repo.FetchFullDocument(ctx, "guide")
	require.NoError(t, err)
	assert.Equal(t, "the whole guide", text)

	text, err = repo.FetchFullDocument(ctx, "orphan")
	require.NoError(t, err)
	assert.Equal(t, "orphan passage", text)

	_, err = repo.FetchFullDocument(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDocumentRepository_Passages(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	_, err := repo.AddDocuments(ctx,
		&core.Document{ID: "src", Content: "source"},
		&core.Document{ID: "src-b", SourceID: "src", Content: "b"},
		&core.Document{ID: "src-a", SourceID: "src", Content: "a"},
		&core.Document{ID: "other", SourceID: "src2", Content: "c"},
	)
	require.NoError(t, err)

	passages, err := repo.GetPassages(ctx, "src")
	require.NoError(t, err)
	require.Len(t, passages, 2)
	assert.Equal(t, "src-a", passages[0].ID)
	assert.Equal(t, "src-b", passages[1].ID)
}
