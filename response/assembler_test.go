package response

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/quarry/ai"
	"github.com/poiesic/quarry/ai/mock"
	"github.com/poiesic/quarry/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func source(id string, score float64, title string) *core.EnhancedContext {
	c := &core.EnhancedContext{
		Content:        "content of " + id,
		RelevanceScore: score,
		SourceDocID:    id,
	}
	if title != "" {
		c.Metadata = map[string]any{"title": title}
	}
	return c
}

func fixedGenerator(text string, tokens int) *mock.MockGenerator {
	g := mock.NewMockGenerator()
	g.CompleteFunc = func(ctx context.Context, prompt string, sources []*core.EnhancedContext, maxTokens int, temperature float64) (*ai.Completion, error) {
		return &ai.Completion{Text: text, TokensUsed: tokens, FinishReason: "stop", Model: "fixed"}, nil
	}
	return g
}

func TestNewAssembler(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		a, err := NewAssembler(mock.NewMockGenerator())
		require.NoError(t, err)
		assert.Equal(t, *DefaultConfig(), a.Config())
	})

	t.Run("nil generator", func(t *testing.T) {
		_, err := NewAssembler(nil)
		assert.Equal(t, ErrGeneratorRequired, err)
	})

	t.Run("invalid style", func(t *testing.T) {
		_, err := NewAssembler(mock.NewMockGenerator(), WithCitationStyle("APA"))
		assert.ErrorIs(t, err, ErrInvalidCitationStyle)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxSources = 0
		_, err := NewAssembler(mock.NewMockGenerator(), WithConfig(cfg))
		assert.Error(t, err)
	})

	t.Run("nil counter keeps estimator", func(t *testing.T) {
		a, err := NewAssembler(mock.NewMockGenerator(), WithTokenCounter(nil))
		require.NoError(t, err)
		assert.NotNil(t, a.counter)
	})

	t.Run("nil logger falls back to default", func(t *testing.T) {
		a, err := NewAssembler(mock.NewMockGenerator(), WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, a.logger)
	})
}

func TestFilterSources(t *testing.T) {
	a, err := NewAssembler(mock.NewMockGenerator())
	require.NoError(t, err)

	sources := []*core.EnhancedContext{
		source("low", 0.59, ""),
		source("a", 0.7, ""),
		source("b", 0.9, ""),
		source("edge", 0.6, ""),
		source("c", 0.8, ""),
		source("d", 0.7, ""),
		source("e", 0.95, ""),
		nil,
	}
	got := a.FilterSources(sources)
	require.Len(t, got, 5)

	ids := make([]string, len(got))
	for i, s := range got {
		ids[i] = s.SourceDocID
	}
	assert.Equal(t, []string{"e", "b", "c", "a", "d"}, ids)

	assert.Empty(t, a.FilterSources(nil))
}

func TestAssemble_NoRelevantSources(t *testing.T) {
	gen := mock.NewMockGenerator()
	a, err := NewAssembler(gen)
	require.NoError(t, err)

	resp, err := a.Assemble(context.Background(), "anything", []*core.EnhancedContext{source("weak", 0.2, "")})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, FallbackText, resp.ResponseText)
	assert.Contains(t, resp.ResponseText, "insufficient relevant information")
	assert.Zero(t, resp.ConfidenceScore)
	assert.Empty(t, resp.Citations)
	assert.Zero(t, gen.CallCount(), "generator must not be called")
}

func TestAssemble_NumberedSourcesBlock(t *testing.T) {
	gen := fixedGenerator("Python is a general purpose programming language. It was created by Guido van Rossum. It is popular for data work.", 25)
	a, err := NewAssembler(gen)
	require.NoError(t, err)

	resp, err := a.Assemble(context.Background(), "What is Python?", []*core.EnhancedContext{
		source("doc-a", 0.9, "Python Docs"),
		source("doc-b", 0.8, ""),
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.True(t, strings.HasSuffix(resp.ResponseText, "Sources:\n1. Python Docs\n2. doc-b"), resp.ResponseText)
	assert.Contains(t, resp.ResponseText, "programming language [1].")
	assert.Contains(t, resp.ResponseText, "Guido van Rossum [2].")

	require.Len(t, resp.Citations, 2)
	assert.Equal(t, "doc-a", resp.Citations[0].ID)
	assert.Equal(t, 1, resp.Citations[0].Position)
	assert.Equal(t, "[1]", resp.Citations[0].CitationText)
	assert.Equal(t, "[2]", resp.Citations[1].CitationText)
	assert.Equal(t, 2, resp.SourceCount)
	assert.Equal(t, "fixed", resp.ModelUsed)
	assert.Equal(t, 25, resp.TokensUsed)

	// 0.5*0.85 + 0.3 + 0.2
	assert.InDelta(t, 0.925, resp.ConfidenceScore, 1e-9)
	// ideal length 0.3 + sources 0.3 + markers 0.2 + one keyword 0.05
	assert.InDelta(t, 0.85, resp.QualityScore, 1e-9)
}

type fixedCounter int

func (c fixedCounter) CountTokens(string) int { return int(c) }

func TestAssemble_UnreportedTokenUsage(t *testing.T) {
	long := strings.Repeat("Python is a widely used programming language with a large standard library. ", 6)
	sources := []*core.EnhancedContext{source("doc-a", 1.0, "Guide")}

	t.Run("estimated from text", func(t *testing.T) {
		a, err := NewAssembler(fixedGenerator(long, 0))
		require.NoError(t, err)

		resp, err := a.Assemble(context.Background(), "What is Python?", sources)
		require.NoError(t, err)
		assert.Greater(t, resp.TokensUsed, longAnswerTokens)
		assert.InDelta(t, 1.0, resp.ConfidenceScore, 1e-9)
	})

	t.Run("matches reported usage", func(t *testing.T) {
		a, err := NewAssembler(fixedGenerator(long, 80))
		require.NoError(t, err)

		resp, err := a.Assemble(context.Background(), "What is Python?", sources)
		require.NoError(t, err)
		assert.Equal(t, 80, resp.TokensUsed)
		assert.InDelta(t, 1.0, resp.ConfidenceScore, 1e-9)
	})

	t.Run("custom counter", func(t *testing.T) {
		a, err := NewAssembler(fixedGenerator(long, 0), WithTokenCounter(fixedCounter(5)))
		require.NoError(t, err)

		resp, err := a.Assemble(context.Background(), "What is Python?", sources)
		require.NoError(t, err)
		assert.Equal(t, 5, resp.TokensUsed)
		assert.InDelta(t, 0.8, resp.ConfidenceScore, 1e-9)
	})

	t.Run("reported usage wins over counter", func(t *testing.T) {
		a, err := NewAssembler(fixedGenerator(long, 30), WithTokenCounter(fixedCounter(5)))
		require.NoError(t, err)

		resp, err := a.Assemble(context.Background(), "What is Python?", sources)
		require.NoError(t, err)
		assert.Equal(t, 30, resp.TokensUsed)
	})
}

func TestAssemble_Styles(t *testing.T) {
	text := "Python is a general purpose programming language. It is widely used."
	sources := []*core.EnhancedContext{source("doc-a", 0.9, "Guide"), source("doc-b", 0.8, "")}

	tests := []struct {
		style      CitationStyle
		wantBody   string
		wantSuffix string
	}{
		{CitationNumbered, "programming language [1].", "Sources:\n1. Guide\n2. doc-b"},
		{CitationBracketed, "programming language [Guide].", "Sources:\n[Guide]\n[doc-b]"},
		{CitationFootnote, "programming language ^1.", "Sources:\n^1 Guide\n^2 doc-b"},
		{CitationInline, "programming language (Guide).", "Sources:\n(Guide)\n(doc-b)"},
	}
	for _, tt := range tests {
		t.Run(string(tt.style), func(t *testing.T) {
			a, err := NewAssembler(fixedGenerator(text, 12), WithCitationStyle(tt.style))
			require.NoError(t, err)

			resp, err := a.Assemble(context.Background(), "python", sources)
			require.NoError(t, err)
			assert.Contains(t, resp.ResponseText, tt.wantBody)
			assert.True(t, strings.HasSuffix(resp.ResponseText, tt.wantSuffix), resp.ResponseText)
		})
	}
}

func TestAssemble_GeneratorFailure(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.CompleteFunc = func(ctx context.Context, prompt string, sources []*core.EnhancedContext, maxTokens int, temperature float64) (*ai.Completion, error) {
		return nil, errors.New("model overloaded")
	}
	a, err := NewAssembler(gen)
	require.NoError(t, err)

	_, err = a.Assemble(context.Background(), "q", []*core.EnhancedContext{source("a", 0.9, "")})
	assert.ErrorIs(t, err, core.ErrGeneration)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestAssemble_EmptyCompletion(t *testing.T) {
	a, err := NewAssembler(fixedGenerator("   ", 0))
	require.NoError(t, err)

	_, err = a.Assemble(context.Background(), "q", []*core.EnhancedContext{source("a", 0.9, "")})
	assert.ErrorIs(t, err, core.ErrGeneration)
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestAssemble_PassesSettingsToGenerator(t *testing.T) {
	var gotTokens int
	var gotTemp float64
	var gotSources int
	gen := mock.NewMockGenerator()
	gen.CompleteFunc = func(ctx context.Context, prompt string, sources []*core.EnhancedContext, maxTokens int, temperature float64) (*ai.Completion, error) {
		gotTokens, gotTemp, gotSources = maxTokens, temperature, len(sources)
		return &ai.Completion{Text: "An answer that is long enough to cite."}, nil
	}
	cfg := DefaultConfig()
	cfg.MaxTokens = 128
	cfg.Temperature = 0.7
	cfg.MaxSources = 1
	a, err := NewAssembler(gen, WithConfig(cfg))
	require.NoError(t, err)

	_, err = a.Assemble(context.Background(), "q", []*core.EnhancedContext{source("a", 0.9, ""), source("b", 0.8, "")})
	require.NoError(t, err)
	assert.Equal(t, 128, gotTokens)
	assert.Equal(t, 0.7, gotTemp)
	assert.Equal(t, 1, gotSources)
}
