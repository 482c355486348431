package retrieval

import (
	"strings"
	"unicode/utf8"

	"github.com/poiesic/quarry/core"
)

// BuildWindow locates the first occurrence of snippet in full and returns the
// text around it. windowSize is split evenly before and after the match and
// clipped to the document bounds. Positions are rune offsets into full.
// The second return value is false when snippet does not occur in full.
func BuildWindow(full, snippet string, windowSize int) (core.ContextWindow, bool) {
	snippet = strings.TrimSpace(snippet)
	if snippet == "" {
		return core.ContextWindow{}, false
	}
	idx := strings.Index(full, snippet)
	if idx < 0 {
		return core.ContextWindow{}, false
	}

	runes := []rune(full)
	start := utf8.RuneCountInString(full[:idx])
	end := start + utf8.RuneCountInString(snippet)
	half := max(windowSize/2, 0)

	winStart := max(start-half, 0)
	winEnd := min(end+half, len(runes))

	return core.ContextWindow{
		Previous: strings.TrimSpace(string(runes[winStart:start])),
		Next:     strings.TrimSpace(string(runes[end:winEnd])),
		StartPos: winStart,
		EndPos:   winEnd,
	}, true
}
