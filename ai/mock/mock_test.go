package mock

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/poiesic/quarry/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestMockEmbedder_Default(t *testing.T) {
	ctx := context.Background()
	m := NewMockEmbedder()

	v1, err := m.EmbedText(ctx, "Python is a language")
	require.NoError(t, err)
	v2, err := m.EmbedText(ctx, "python is a language")
	require.NoError(t, err)
	assert.Len(t, v1, EmbeddingDim)
	assert.Equal(t, v1, v2, "embedding should be case-insensitive and deterministic")

	related, _ := m.EmbedText(ctx, "python tutorial")
	assert.Greater(t, cosine(v1, related), 0.0)
	assert.InDelta(t, 1.0, cosine(v1, v1), 1e-6)

	batch, err := m.EmbedTexts(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, batch, 2)
	assert.Equal(t, 4, m.CallCount())

	m.Reset()
	assert.Equal(t, 0, m.CallCount())
}

func TestMockEmbedder_CustomFunc(t *testing.T) {
	m := NewMockEmbedder()
	boom := errors.New("boom")
	m.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, boom
	}

	_, err := m.EmbedText(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}

func TestBagOfWordsVector_Empty(t *testing.T) {
	v := BagOfWordsVector("", 8)
	assert.Equal(t, make([]float32, 8), v)
}

func TestMockGenerator(t *testing.T) {
	g := NewMockGenerator()
	sources := []*core.EnhancedContext{{Content: "Go is fast."}}

	c, err := g.Complete(context.Background(), "Is Go fast?", sources, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, "Here is what the available sources say about Is Go fast. Go is fast.", c.Text)
	assert.Equal(t, "mock-model", c.Model)
	assert.Equal(t, "stop", c.FinishReason)
	assert.Equal(t, 14, c.TokensUsed)
	assert.Equal(t, 1, g.CallCount())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Complete(ctx, "x", nil, 10, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider()
	require.NotNil(t, p.Embedder())
	require.NotNil(t, p.Generator())
	assert.NoError(t, p.Close())

	mp := p.(*MockProvider)
	assert.Same(t, mp.GetMockEmbedder(), p.Embedder())
	assert.Same(t, mp.GetMockGenerator(), p.Generator())
}
