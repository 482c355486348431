package response

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/quarry/ai"
	"github.com/poiesic/quarry/ai/tokenizer"
	"github.com/poiesic/quarry/core"
)

// FallbackText is returned when no source is relevant enough to answer from.
const FallbackText = "I have insufficient relevant information to answer this question."

// Assembler builds GeneratedResponses. It is safe for concurrent use.
type Assembler struct {
	generator ai.Generator
	counter   tokenizer.Counter
	config    Config
	logger    *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// WithTokenCounter sets the counter used to size completions whose usage the
// service did not report. Default is tokenizer.Estimator.
func WithTokenCounter(counter tokenizer.Counter) Option {
	return func(a *Assembler) error {
		if counter != nil {
			a.counter = counter
		}
		return nil
	}
}

// WithConfig replaces the default configuration.
func WithConfig(config *Config) Option {
	return func(a *Assembler) error {
		if config == nil {
			return nil
		}
		if err := config.Validate(); err != nil {
			return err
		}
		a.config = *config
		return nil
	}
}

// WithCitationStyle overrides the citation style.
func WithCitationStyle(style CitationStyle) Option {
	return func(a *Assembler) error {
		if !style.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidCitationStyle, style)
		}
		a.config.CitationStyle = style
		return nil
	}
}

// NewAssembler creates an Assembler that obtains answer text from generator.
func NewAssembler(generator ai.Generator, opts ...Option) (*Assembler, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	a := &Assembler{
		generator: generator,
		counter:   tokenizer.Estimator{},
		config:    *DefaultConfig(),
		logger:    slog.Default().With("component", "assembler"),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Config returns a copy of the active configuration.
func (a *Assembler) Config() Config {
	return a.config
}

// FilterSources keeps sources scoring at least MinRelevanceScore, best first,
// at most MaxSources of them. Equal scores keep their input order.
func (a *Assembler) FilterSources(sources []*core.EnhancedContext) []*core.EnhancedContext {
	kept := make([]*core.EnhancedContext, 0, len(sources))
	for _, s := range sources {
		if s != nil && s.RelevanceScore >= a.config.MinRelevanceScore {
			kept = append(kept, s)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].RelevanceScore > kept[j].RelevanceScore
	})
	if len(kept) > a.config.MaxSources {
		kept = kept[:a.config.MaxSources]
	}
	return kept
}

// Assemble answers q from sources. Having no usable source is not an error:
// the result is a successful response with FallbackText and zero confidence.
// Generator failures are returned wrapped in core.ErrGeneration.
func (a *Assembler) Assemble(ctx context.Context, q string, sources []*core.EnhancedContext) (*core.GeneratedResponse, error) {
	filtered := a.FilterSources(sources)
	if len(filtered) == 0 {
		a.logger.Debug("no relevant sources, using fallback", "offered", len(sources))
		return &core.GeneratedResponse{
			ResponseText:    FallbackText,
			Citations:       []*core.Citation{},
			ConfidenceScore: 0,
			QualityScore:    0,
			Success:         true,
		}, nil
	}

	completion, err := a.generator.Complete(ctx, q, filtered, a.config.MaxTokens, a.config.Temperature)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrGeneration, err)
	}
	text := strings.TrimSpace(completion.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrGeneration, ErrEmptyCompletion)
	}

	tokens := completion.TokensUsed
	if tokens <= 0 {
		tokens = a.counter.CountTokens(text)
	}

	citations, names := buildCitations(a.config.CitationStyle, filtered)
	markers := make([]string, len(citations))
	for i, c := range citations {
		markers[i] = c.CitationText
	}
	body := insertMarkers(text, markers)
	hasMarkers := body != text

	resp := &core.GeneratedResponse{
		ResponseText:    body + "\n\n" + a.config.CitationStyle.SourcesBlock(citations, names),
		Citations:       citations,
		SourceCount:     len(filtered),
		ConfidenceScore: ConfidenceScore(filtered, true, tokens),
		QualityScore:    QualityScore(q, body, len(filtered), hasMarkers),
		ModelUsed:       completion.Model,
		TokensUsed:      tokens,
		Success:         true,
	}

	a.logger.Debug("assembled response",
		"sources", resp.SourceCount,
		"tokens", resp.TokensUsed,
		"confidence", resp.ConfidenceScore,
		"quality", resp.QualityScore)
	return resp, nil
}
