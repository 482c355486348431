package ai

import (
	"fmt"
	"strings"

	"github.com/poiesic/quarry/core"
)

const answerPromptTemplate = `Answer the question using only the numbered sources below.
If the sources do not contain the answer, say so plainly. Do not invent facts.
Keep the answer concise and write complete sentences.

Sources:
%s
Question: %s
Answer:`

// RenderPrompt formats prompt and its sources into a single completion prompt.
// Sources are numbered from 1 in the order given. Context window text, when
// present, is included around each source passage.
func RenderPrompt(prompt string, sources []*core.EnhancedContext) string {
	var b strings.Builder
	for i, src := range sources {
		fmt.Fprintf(&b, "[%d] ", i+1)
		if !src.Window.IsEmpty() && src.Window.Previous != "" {
			b.WriteString("...")
			b.WriteString(src.Window.Previous)
			b.WriteString(" ")
		}
		b.WriteString(strings.TrimSpace(src.Content))
		if !src.Window.IsEmpty() && src.Window.Next != "" {
			b.WriteString(" ")
			b.WriteString(src.Window.Next)
			b.WriteString("...")
		}
		b.WriteString("\n")
	}
	if len(sources) == 0 {
		b.WriteString("(none)\n")
	}
	return fmt.Sprintf(answerPromptTemplate, b.String(), strings.TrimSpace(prompt))
}
