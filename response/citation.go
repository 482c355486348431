package response

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/quarry/core"
)

// minCitableSentence is the length a sentence must exceed to receive the
// first citation marker.
const minCitableSentence = 20

const snippetLength = 200

// SourceName returns a human readable name for a source: its title, source or
// name metadata, falling back to the source document ID.
func SourceName(src *core.EnhancedContext) string {
	for _, key := range []string{"title", "source", "name"} {
		if v, ok := src.Metadata[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return src.SourceDocID
}

// Marker renders the citation marker for the source at 1-based position i.
func (s CitationStyle) Marker(i int, name string) string {
	switch s {
	case CitationBracketed:
		return "[" + name + "]"
	case CitationFootnote:
		return fmt.Sprintf("^%d", i)
	case CitationInline:
		return "(" + name + ")"
	default:
		return fmt.Sprintf("[%d]", i)
	}
}

// SourcesBlock renders the trailing list of sources.
func (s CitationStyle) SourcesBlock(citations []*core.Citation, names []string) string {
	var b strings.Builder
	b.WriteString("Sources:")
	for i, c := range citations {
		b.WriteString("\n")
		switch s {
		case CitationNumbered:
			fmt.Fprintf(&b, "%d. %s", c.Position, names[i])
		case CitationFootnote:
			fmt.Fprintf(&b, "%s %s", c.CitationText, names[i])
		default:
			b.WriteString(c.CitationText)
		}
	}
	return b.String()
}

func buildCitations(style CitationStyle, sources []*core.EnhancedContext) ([]*core.Citation, []string) {
	citations := make([]*core.Citation, len(sources))
	names := make([]string, len(sources))
	for i, src := range sources {
		names[i] = SourceName(src)
		citations[i] = &core.Citation{
			ID:             src.SourceDocID,
			SourceText:     snippet(src.Content),
			Metadata:       src.Metadata,
			RelevanceScore: src.RelevanceScore,
			Position:       i + 1,
			CitationText:   style.Marker(i+1, names[i]),
		}
	}
	return citations, names
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= snippetLength {
		return s
	}
	return string([]rune(s)[:snippetLength]) + "..."
}

// sentence is a byte span of text. end is exclusive and includes any
// terminal punctuation.
type sentence struct {
	start, end int
}

func splitSentences(text string) []sentence {
	var out []sentence
	start := 0
	for i := 0; i < len(text); i++ {
		if !isTerminal(text[i]) {
			continue
		}
		// Absorb runs like "?!" or "..."
		j := i + 1
		for j < len(text) && isTerminal(text[j]) {
			j++
		}
		if j == len(text) || isSpace(text[j]) {
			out = append(out, sentence{start, j})
			for j < len(text) && isSpace(text[j]) {
				j++
			}
			start = j
		}
		i = j - 1
	}
	if start < len(text) && strings.TrimSpace(text[start:]) != "" {
		out = append(out, sentence{start, len(text)})
	}
	return out
}

func isTerminal(c byte) bool { return c == '.' || c == '!' || c == '?' }

func isSpace(c byte) bool { return c == ' ' || c == '\n' || c == '\t' || c == '\r' }

// markerOffset returns where a marker belongs in s: before its terminal
// punctuation, or at its end if it has none.
func markerOffset(text string, s sentence) int {
	end := s.end
	for end > s.start && isTerminal(text[end-1]) {
		end--
	}
	for end > s.start && isSpace(text[end-1]) {
		end--
	}
	return end
}

// insertMarkers places the first marker in the first sentence longer than
// minCitableSentence characters and the second marker in the sentence at the
// midpoint of the text. Markers after the second are listed only in the
// sources block.
func insertMarkers(text string, markers []string) string {
	if len(markers) == 0 {
		return text
	}
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return text
	}

	type insertion struct {
		offset int
		marker string
	}
	var inserts []insertion
	for _, s := range sentences {
		if utf8.RuneCountInString(strings.TrimSpace(text[s.start:s.end])) > minCitableSentence {
			inserts = append(inserts, insertion{markerOffset(text, s), markers[0]})
			break
		}
	}
	if len(markers) >= 2 {
		mid := sentences[len(sentences)/2]
		inserts = append(inserts, insertion{markerOffset(text, mid), markers[1]})
	}

	if len(inserts) == 2 && inserts[0].offset == inserts[1].offset {
		inserts = []insertion{{inserts[0].offset, inserts[0].marker + " " + inserts[1].marker}}
	}
	// Apply right to left so earlier offsets stay valid
	sort.SliceStable(inserts, func(i, j int) bool { return inserts[i].offset > inserts[j].offset })

	out := text
	for _, ins := range inserts {
		out = out[:ins.offset] + " " + ins.marker + out[ins.offset:]
	}
	return out
}
