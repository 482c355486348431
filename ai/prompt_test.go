package ai

import (
	"testing"

	"github.com/poiesic/quarry/core"
	"github.com/stretchr/testify/assert"
)

func TestRenderPrompt(t *testing.T) {
	t.Run("numbers sources in order", func(t *testing.T) {
		prompt := RenderPrompt("What is Go?", []*core.EnhancedContext{
			{Content: "Go is a language."},
			{Content: "It has goroutines.", Window: core.ContextWindow{Previous: "Before.", Next: "After.", EndPos: 10}},
		})

		assert.Contains(t, prompt, "[1] Go is a language.\n")
		assert.Contains(t, prompt, "[2] ...Before. It has goroutines. After....\n")
		assert.Contains(t, prompt, "Question: What is Go?")
	})

	t.Run("no sources", func(t *testing.T) {
		prompt := RenderPrompt("  hello  ", nil)
		assert.Contains(t, prompt, "(none)")
		assert.Contains(t, prompt, "Question: hello\n")
	})
}
