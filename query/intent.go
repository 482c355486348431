package query

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/poiesic/quarry/core"
)

// Confidence adjustments applied after the base intent match.
const (
	defaultIntentConfidence = 0.3
	questionMarkBonus       = 0.1
	componentsBonus         = 0.1
	shortQueryPenalty       = 0.2
	quotedTextBonus         = 0.1
	subIntentBonus          = 0.05
	shortQueryWords         = 3
)

type intentPattern struct {
	pattern    *regexp.Regexp
	confidence float64
}

type intentRule struct {
	category core.IntentCategory
	patterns []intentPattern
}

// intentRules are listed in tie-break order.
var intentRules = []intentRule{
	{core.IntentInformational, []intentPattern{
		{regexp.MustCompile(`^(what|who|when|where|which)\b`), 0.7},
		{regexp.MustCompile(`\b(explain|describe|tell me about|information about|overview of)\b`), 0.8},
		{regexp.MustCompile(`^(define|definition of|meaning of)\b`), 0.85},
	}},
	{core.IntentProcedural, []intentPattern{
		{regexp.MustCompile(`^how (to|do|can|should)\b`), 0.85},
		{regexp.MustCompile(`\b(steps|step by step|guide|tutorial|instructions|process for)\b`), 0.8},
		{regexp.MustCompile(`\b(install|configure|setup|set up|deploy|implement)\b`), 0.6},
	}},
	{core.IntentNavigational, []intentPattern{
		{regexp.MustCompile(`\b(find|locate|where can i find|go to|navigate to)\b`), 0.75},
		{regexp.MustCompile(`\b(page|section|link|documentation for|docs for)\b`), 0.6},
	}},
	{core.IntentTransactional, []intentPattern{
		{regexp.MustCompile(`\b(buy|purchase|order|download|subscribe|sign up|register|book)\b`), 0.8},
		{regexp.MustCompile(`\b(price|cost|pricing)\b`), 0.6},
	}},
	{core.IntentAnalytical, []intentPattern{
		{regexp.MustCompile(`\b(compare|comparison|versus|vs|difference between|pros and cons|advantages|disadvantages)\b`), 0.85},
		{regexp.MustCompile(`\b(analy[sz]e|evaluate|assess|impact of|trends?|why does|why is)\b`), 0.75},
	}},
	{core.IntentClarification, []intentPattern{
		{regexp.MustCompile(`\b(what do you mean|clarify|confused|dont understand|unclear)\b`), 0.85},
		{regexp.MustCompile(`\b(you mean|in other words|elaborate)\b`), 0.7},
	}},
}

type specificityRule struct {
	level      core.Specificity
	indicators []*regexp.Regexp
}

// specificityRules are listed in tie-break order.
var specificityRules = []specificityRule{
	{core.SpecificitySpecific, []*regexp.Regexp{
		regexp.MustCompile(`\b\d+\b`),
		regexp.MustCompile(`\b(specific|specifically|exactly|precisely|particular|version)\b`),
		regexp.MustCompile(`\b[a-z]+\d+[a-z\d]*\b`),
	}},
	{core.SpecificityModerate, []*regexp.Regexp{
		regexp.MustCompile(`\b(how to|best way|example|examples|steps)\b`),
		regexp.MustCompile(`\b(using|configure|setup|implement|between)\b`),
	}},
	{core.SpecificityBroad, []*regexp.Regexp{
		regexp.MustCompile(`\b(overview|general|introduction|basics|everything|anything|all about)\b`),
		regexp.MustCompile(`^(what|tell me) about\b`),
	}},
}

type subIntentRule struct {
	subIntent core.SubIntent
	indicator *regexp.Regexp
}

var subIntentRules = []subIntentRule{
	{core.SubIntentComparison, regexp.MustCompile(`\b(vs|versus|compare|compared|comparison|difference|better|worse)\b`)},
	{core.SubIntentTemporal, regexp.MustCompile(`\b(when|before|after|during|since|until|latest|recent|recently|history|timeline|today|yesterday|\d{4})\b`)},
	{core.SubIntentQuantitative, regexp.MustCompile(`\b(how many|how much|number of|count|percentage|percent|amount|average|total|statistics)\b`)},
	{core.SubIntentRequirements, regexp.MustCompile(`\b(require|requires|required|requirements?|need|needs|must|prerequisites?)\b`)},
	{core.SubIntentExamples, regexp.MustCompile(`\b(example|examples|for instance|such as|sample|samples|demo)\b`)},
}

var quotedText = regexp.MustCompile(`"[^"]+"|“[^”]+”`)

// IntentClassifier derives the intent of a parsed query.
type IntentClassifier struct {
	logger *slog.Logger
}

// IntentOption configures an IntentClassifier.
type IntentOption func(*IntentClassifier)

// WithIntentLogger sets a custom logger.
func WithIntentLogger(logger *slog.Logger) IntentOption {
	return func(c *IntentClassifier) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// NewIntentClassifier creates an intent classifier.
func NewIntentClassifier(opts ...IntentOption) *IntentClassifier {
	c := &IntentClassifier{
		logger: slog.Default().With("component", "intent"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the intent of parsed. Category and pattern tables are
// matched against the normalized text, while the question mark and quote
// checks look at the original text.
func (c *IntentClassifier) Classify(parsed *core.ParsedQuery) *core.QueryIntent {
	text := parsed.Normalized

	category, base, matched := matchCategory(text)
	specificity, specScores := matchSpecificity(text)
	subIntents := matchSubIntents(text)

	wordCount := len(strings.Fields(text))
	hasQuestion := strings.HasSuffix(strings.TrimSpace(parsed.Original), "?")
	hasQuoted := quotedText.MatchString(parsed.Original)

	confidence := base
	if hasQuestion {
		confidence += questionMarkBonus
	}
	if parsed.Subject != "" && parsed.Action != "" {
		confidence += componentsBonus
	}
	if wordCount < shortQueryWords {
		confidence -= shortQueryPenalty
	}
	if hasQuoted {
		confidence += quotedTextBonus
	}
	confidence += subIntentBonus * float64(len(subIntents))
	confidence = clamp01(confidence)

	intent := &core.QueryIntent{
		Category:    category,
		Specificity: specificity,
		Confidence:  confidence,
		SubIntents:  subIntents,
		Features: map[string]any{
			"word_count":         wordCount,
			"has_question_mark":  hasQuestion,
			"has_quoted_text":    hasQuoted,
			"matched_pattern":    matched,
			"base_confidence":    base,
			"specificity_scores": specScores,
			"query_type":         string(parsed.Type),
		},
	}

	c.logger.Debug("classified intent",
		"category", intent.Category,
		"specificity", intent.Specificity,
		"confidence", intent.Confidence)
	return intent
}

// matchCategory picks the highest-confidence match across all categories.
// Strict comparison keeps the earliest declared rule on ties.
func matchCategory(text string) (core.IntentCategory, float64, string) {
	best := core.IntentInformational
	bestConf := 0.0
	matched := ""
	for _, rule := range intentRules {
		for _, p := range rule.patterns {
			if p.confidence > bestConf && p.pattern.MatchString(text) {
				best, bestConf, matched = rule.category, p.confidence, p.pattern.String()
			}
		}
	}
	if matched == "" {
		return core.IntentInformational, defaultIntentConfidence, ""
	}
	return best, bestConf, matched
}

func matchSpecificity(text string) (core.Specificity, map[string]int) {
	scores := make(map[string]int, len(specificityRules))
	best := core.SpecificityModerate
	bestCount := 0
	for _, rule := range specificityRules {
		count := 0
		for _, re := range rule.indicators {
			count += len(re.FindAllStringIndex(text, -1))
		}
		scores[string(rule.level)] = count
		if count > bestCount {
			best, bestCount = rule.level, count
		}
	}
	return best, scores
}

func matchSubIntents(text string) []core.SubIntent {
	found := []core.SubIntent{}
	for _, rule := range subIntentRules {
		if rule.indicator.MatchString(text) {
			found = append(found, rule.subIntent)
		}
	}
	return found
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
