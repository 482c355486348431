package response

import (
	"errors"
	"fmt"
)

// CitationStyle selects how citation markers are rendered.
type CitationStyle string

const (
	// CitationNumbered renders markers as [1], [2], ...
	CitationNumbered CitationStyle = "NUMBERED"
	// CitationBracketed renders markers as [source-name].
	CitationBracketed CitationStyle = "BRACKETED"
	// CitationFootnote renders markers as ^1, ^2, ...
	CitationFootnote CitationStyle = "FOOTNOTE"
	// CitationInline renders markers as (source-name).
	CitationInline CitationStyle = "INLINE"
)

// Valid reports whether s is a known style.
func (s CitationStyle) Valid() bool {
	switch s {
	case CitationNumbered, CitationBracketed, CitationFootnote, CitationInline:
		return true
	}
	return false
}

// Config holds response assembly settings.
type Config struct {
	CitationStyle CitationStyle `yaml:"citation_style"`

	// MaxSources caps the number of sources passed to the generator.
	MaxSources int `yaml:"max_sources"`

	// MinRelevanceScore is the lowest relevance a source may have to be used.
	MinRelevanceScore float64 `yaml:"min_relevance_score"`

	// MaxTokens and Temperature are passed through to the generator.
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// DefaultConfig returns the default assembly settings.
func DefaultConfig() *Config {
	return &Config{
		CitationStyle:     CitationNumbered,
		MaxSources:        5,
		MinRelevanceScore: 0.6,
		MaxTokens:         512,
		Temperature:       0.2,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if !c.CitationStyle.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCitationStyle, c.CitationStyle)
	}
	if c.MaxSources < 1 {
		return errors.New("max_sources must be positive")
	}
	if c.MinRelevanceScore < 0 || c.MinRelevanceScore > 1 {
		return errors.New("min_relevance_score must be in [0, 1]")
	}
	if c.MaxTokens < 1 {
		return errors.New("max_tokens must be positive")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("temperature must be in [0, 2]")
	}
	return nil
}
