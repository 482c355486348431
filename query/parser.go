package query

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/quarry/core"
)

// fillerWords are dropped during normalization.
var fillerWords = map[string]bool{
	"a": true, "an": true, "the": true, "please": true, "could": true,
	"would": true, "kindly": true, "just": true, "really": true, "basically": true,
}

// stopWords are excluded from extracted keywords.
var stopWords = map[string]bool{
	"about": true, "and": true, "are": true, "but": true, "can": true, "did": true,
	"does": true, "for": true, "from": true, "has": true, "have": true, "how": true,
	"into": true, "its": true, "not": true, "our": true, "should": true, "that": true,
	"the": true, "their": true, "them": true, "then": true, "there": true, "these": true,
	"they": true, "this": true, "those": true, "was": true, "were": true, "what": true,
	"when": true, "where": true, "which": true, "who": true, "why": true, "will": true,
	"with": true, "you": true, "your": true, "between": true, "some": true, "any": true,
}

// questionStarters maps a leading word directly to a query type.
var questionStarters = map[string]core.QueryType{
	"how":    core.QueryTypeHowTo,
	"what":   core.QueryTypeQuestion,
	"who":    core.QueryTypeQuestion,
	"where":  core.QueryTypeQuestion,
	"when":   core.QueryTypeQuestion,
	"why":    core.QueryTypeQuestion,
	"which":  core.QueryTypeQuestion,
	"is":     core.QueryTypeQuestion,
	"are":    core.QueryTypeQuestion,
	"was":    core.QueryTypeQuestion,
	"were":   core.QueryTypeQuestion,
	"can":    core.QueryTypeQuestion,
	"does":   core.QueryTypeQuestion,
	"do":     core.QueryTypeQuestion,
	"did":    core.QueryTypeQuestion,
	"will":   core.QueryTypeQuestion,
	"should": core.QueryTypeQuestion,
	"has":    core.QueryTypeQuestion,
	"have":   core.QueryTypeQuestion,
}

type typePattern struct {
	queryType core.QueryType
	pattern   *regexp.Regexp
}

// typePatterns is evaluated in order when the first word is not a question starter.
var typePatterns = []typePattern{
	{core.QueryTypeDefinition, regexp.MustCompile(`^(define|definition of|meaning of)\b`)},
	{core.QueryTypeDefinition, regexp.MustCompile(`\bwhat does .+ mean\b`)},
	{core.QueryTypeExample, regexp.MustCompile(`\b(example|examples|sample|samples|instance of|demonstrate)\b`)},
	{core.QueryTypeExample, regexp.MustCompile(`^show me\b`)},
	{core.QueryTypeHowTo, regexp.MustCompile(`\bhow to\b`)},
	{core.QueryTypeHowTo, regexp.MustCompile(`\b(steps|guide|tutorial|instructions)\b`)},
	{core.QueryTypeComparison, regexp.MustCompile(`\b(vs|versus|compared to|compare|comparison|difference between)\b`)},
}

var (
	howToPattern      = regexp.MustCompile(`\bhow (?:to|do i|do you|can i|should i) (.+)$`)
	definitionPattern = regexp.MustCompile(`^(?:what|who) (?:is|are) (.+)$`)
	definePattern     = regexp.MustCompile(`^(?:define|definition of|meaning of) (.+)$`)
	comparisonSplit   = regexp.MustCompile(`\s+(?:vs|versus|compared to)\s+`)
	differencePattern = regexp.MustCompile(`\bdifference between (.+?) and (.+)$`)
)

// Parser normalizes queries and classifies their syntactic type.
type Parser struct {
	logger *slog.Logger
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithParserLogger sets a custom logger.
func WithParserLogger(logger *slog.Logger) ParserOption {
	return func(p *Parser) {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
	}
}

// NewParser creates a parser.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		logger: slog.Default().With("component", "parser"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse normalizes query, classifies it and extracts its components.
func (p *Parser) Parse(query string) *core.ParsedQuery {
	normalized := Normalize(query)
	queryType := classifyType(normalized)

	parsed := &core.ParsedQuery{
		Original:   query,
		Normalized: normalized,
		Type:       queryType,
		Keywords:   ExtractKeywords(normalized),
		Metadata: map[string]any{
			"word_count":   len(strings.Fields(normalized)),
			"char_count":   utf8.RuneCountInString(query),
			"has_question": strings.HasSuffix(strings.TrimSpace(query), "?"),
		},
	}
	extractComponents(parsed)

	p.logger.Debug("parsed query", "type", parsed.Type, "keywords", len(parsed.Keywords))
	return parsed
}

// Normalize lowercases text, strips punctuation other than '?', collapses
// whitespace and drops filler words.
func Normalize(text string) string {
	lowered := strings.Map(func(r rune) rune {
		switch {
		case r == '?':
			return r
		case r == '\'' || r == '’':
			return -1
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			return ' '
		case unicode.IsSpace(r):
			return ' '
		}
		return unicode.ToLower(r)
	}, text)

	words := strings.Fields(lowered)
	kept := words[:0]
	for _, w := range words {
		if !fillerWords[strings.TrimSuffix(w, "?")] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// ExtractKeywords returns the distinct content words of normalized text in order.
func ExtractKeywords(normalized string) []string {
	fields := strings.Fields(normalized)
	keywords := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		w := strings.Trim(f, "?")
		if utf8.RuneCountInString(w) <= 2 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		keywords = append(keywords, w)
	}
	return keywords
}

func classifyType(normalized string) core.QueryType {
	if normalized == "" || strings.Trim(normalized, "? ") == "" {
		return core.QueryTypeUnknown
	}

	first := strings.TrimSuffix(strings.Fields(normalized)[0], "?")
	if t, ok := questionStarters[first]; ok {
		return t
	}

	for _, tp := range typePatterns {
		if tp.pattern.MatchString(normalized) {
			return tp.queryType
		}
	}
	return core.QueryTypeKeyword
}

func extractComponents(parsed *core.ParsedQuery) {
	text := strings.TrimSpace(strings.TrimRight(parsed.Normalized, "? "))

	switch parsed.Type {
	case core.QueryTypeHowTo:
		if m := howToPattern.FindStringSubmatch(text); m != nil {
			parsed.Action = m[1]
			// The object of the action is whatever follows its verb.
			if _, rest, ok := strings.Cut(m[1], " "); ok {
				parsed.Subject = rest
			}
		}
	case core.QueryTypeDefinition, core.QueryTypeQuestion:
		if m := definitionPattern.FindStringSubmatch(text); m != nil {
			parsed.Subject = m[1]
		} else if m := definePattern.FindStringSubmatch(text); m != nil {
			parsed.Subject = m[1]
		}
	case core.QueryTypeComparison:
		if m := differencePattern.FindStringSubmatch(text); m != nil {
			parsed.Subject, parsed.Context = m[1], m[2]
		} else if parts := comparisonSplit.Split(text, 2); len(parts) == 2 {
			parsed.Subject = strings.TrimSpace(strings.TrimPrefix(parts[0], "compare "))
			parsed.Context = strings.TrimSpace(parts[1])
		}
	}
}
