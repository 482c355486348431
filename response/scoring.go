package response

import (
	"strings"
	"unicode/utf8"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/query"
)

// Quality and confidence weights. The constants are heuristics kept stable
// so scores are comparable across releases.
const (
	qualityLengthIdeal    = 0.3
	qualityLengthShort    = 0.1
	qualitySourcesUsed    = 0.3
	qualityCitations      = 0.2
	qualityPerKeyword     = 0.05
	qualityKeywordCap     = 0.2
	confidenceRelevance   = 0.5
	confidenceGenerated   = 0.3
	confidenceLongAnswer  = 0.2
	longAnswerTokens      = 20
	idealLengthLow        = 50
	idealLengthHigh       = 1000
	minimalResponseLength = 20
)

// QualityScore rates a response body. text is the answer with citation
// markers and without the sources block.
func QualityScore(q, text string, sourcesUsed int, hasMarkers bool) float64 {
	var score float64

	n := utf8.RuneCountInString(text)
	switch {
	case n >= idealLengthLow && n <= idealLengthHigh:
		score += qualityLengthIdeal
	case n > minimalResponseLength:
		score += qualityLengthShort
	}
	if sourcesUsed > 0 {
		score += qualitySourcesUsed
	}
	if hasMarkers {
		score += qualityCitations
	}
	score += min(qualityKeywordCap, qualityPerKeyword*float64(sharedKeywords(q, text)))

	return clamp01(score)
}

// ConfidenceScore rates how much the answer can be trusted.
func ConfidenceScore(sources []*core.EnhancedContext, generated bool, tokensUsed int) float64 {
	var score float64
	if len(sources) > 0 {
		var sum float64
		for _, s := range sources {
			sum += s.RelevanceScore
		}
		score += confidenceRelevance * sum / float64(len(sources))
	}
	if generated {
		score += confidenceGenerated
	}
	if tokensUsed > longAnswerTokens {
		score += confidenceLongAnswer
	}
	return clamp01(score)
}

// sharedKeywords counts distinct query keywords that occur in text.
func sharedKeywords(q, text string) int {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(query.Normalize(text)) {
		words[strings.Trim(w, "?")] = struct{}{}
	}
	count := 0
	for _, kw := range query.ExtractKeywords(query.Normalize(q)) {
		if _, ok := words[kw]; ok {
			count++
		}
	}
	return count
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
