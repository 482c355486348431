package mock

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/poiesic/quarry/ai"
	"github.com/poiesic/quarry/core"
)

// MockGenerator is a test double for ai.Generator.
type MockGenerator struct {
	// CompleteFunc is called by Complete if set.
	// If nil, the answer is stitched together from the sources.
	CompleteFunc func(ctx context.Context, prompt string, sources []*core.EnhancedContext, maxTokens int, temperature float64) (*ai.Completion, error)

	// Model is reported on default completions.
	Model string

	callCount atomic.Int64
}

// NewMockGenerator creates a mock generator with default behavior.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{Model: "mock-model"}
}

// Complete returns a deterministic answer built from prompt and sources.
func (m *MockGenerator) Complete(ctx context.Context, prompt string, sources []*core.EnhancedContext, maxTokens int, temperature float64) (*ai.Completion, error) {
	m.callCount.Add(1)

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt, sources, maxTokens, temperature)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here is what the available sources say about %s.", strings.TrimRight(prompt, "?.! "))
	for _, src := range sources {
		b.WriteString(" ")
		b.WriteString(strings.TrimSpace(src.Content))
	}
	text := b.String()

	return &ai.Completion{
		Text:         text,
		TokensUsed:   len(strings.Fields(text)),
		FinishReason: "stop",
		Model:        m.Model,
	}, nil
}

// CallCount returns the number of times Complete was called.
func (m *MockGenerator) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom functions.
func (m *MockGenerator) Reset() {
	m.callCount.Store(0)
	m.CompleteFunc = nil
}
