package retrieval

import (
	"errors"
	"runtime"
)

// Config holds context retrieval settings.
type Config struct {
	// MinRelevanceScore drops search results scoring below it.
	MinRelevanceScore float64 `yaml:"min_relevance_score"`

	// K is the number of contexts returned when the caller passes k <= 0.
	K int `yaml:"k"`

	// MaxContextLength is the base size of a context window in characters.
	MaxContextLength int `yaml:"max_context_length"`

	// ContextOverlap widens the window by this fraction of MaxContextLength.
	ContextOverlap float64 `yaml:"context_overlap"`

	// PoolSize bounds how many source documents are loaded concurrently.
	PoolSize int `yaml:"pool_size"`
}

// DefaultConfig returns the default retrieval settings.
func DefaultConfig() *Config {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	return &Config{
		MinRelevanceScore: 0.3,
		K:                 5,
		MaxContextLength:  2000,
		ContextOverlap:    0.2,
		PoolSize:          poolSize,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.MinRelevanceScore < 0 || c.MinRelevanceScore > 1 {
		return errors.New("min_relevance_score must be in [0, 1]")
	}
	if c.K < 1 {
		return errors.New("k must be positive")
	}
	if c.MaxContextLength < 0 {
		return errors.New("max_context_length cannot be negative")
	}
	if c.ContextOverlap < 0 {
		return errors.New("context_overlap cannot be negative")
	}
	if c.PoolSize < 1 {
		return errors.New("pool_size must be positive")
	}
	return nil
}

// WindowSize returns the total number of characters surrounding a match.
func (c *Config) WindowSize() int {
	return int(float64(c.MaxContextLength) * (1 + c.ContextOverlap))
}
