package search

import "errors"

// Config holds the tunables of the hybrid searcher.
type Config struct {
	// SemanticWeight scales the normalized semantic score during fusion.
	// Default: 0.7
	SemanticWeight float64 `yaml:"semantic_weight"`

	// KeywordWeight scales the normalized BM25 score during fusion.
	// Default: 0.3
	KeywordWeight float64 `yaml:"keyword_weight"`

	// MaxResults bounds the number of fused results returned.
	// Default: 10
	MaxResults int `yaml:"max_results"`

	// RerankTopK is the number of results taken from each phase before fusion.
	// Default: 20
	RerankTopK int `yaml:"rerank_top_k"`

	// BM25K1 controls term frequency saturation. Default: 1.5
	BM25K1 float64 `yaml:"bm25_k1"`

	// BM25B controls document length normalization. Default: 0.75
	BM25B float64 `yaml:"bm25_b"`
}

// DefaultConfig returns the default searcher settings.
func DefaultConfig() *Config {
	return &Config{
		SemanticWeight: 0.7,
		KeywordWeight:  0.3,
		MaxResults:     10,
		RerankTopK:     20,
		BM25K1:         1.5,
		BM25B:          0.75,
	}
}

func (c *Config) Validate() error {
	if c.SemanticWeight < 0 || c.KeywordWeight < 0 {
		return errors.New("search config: weights cannot be negative")
	}
	if c.SemanticWeight+c.KeywordWeight == 0 {
		return errors.New("search config: at least one weight must be positive")
	}
	if c.MaxResults < 1 {
		return errors.New("search config: MaxResults must be positive")
	}
	if c.RerankTopK < 1 {
		return errors.New("search config: RerankTopK must be positive")
	}
	if c.BM25K1 <= 0 {
		return errors.New("search config: BM25K1 must be positive")
	}
	if c.BM25B < 0 || c.BM25B > 1 {
		return errors.New("search config: BM25B must be between 0 and 1")
	}
	return nil
}
