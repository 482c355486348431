package search

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/poiesic/quarry/ai"
	"github.com/poiesic/quarry/core"
	"golang.org/x/sync/errgroup"
)

// Stats records the cost of one search.
type Stats struct {
	CandidateCount   int           `json:"candidate_count"`
	SemanticHits     int           `json:"semantic_hits"`
	KeywordHits      int           `json:"keyword_hits"`
	FusedCount       int           `json:"fused_count"`
	FilteredOut      int           `json:"filtered_out"`
	SemanticDuration time.Duration `json:"semantic_duration"`
	KeywordDuration  time.Duration `json:"keyword_duration"`
	FusionDuration   time.Duration `json:"fusion_duration"`
}

// Results is the ranked output of a search together with its stats.
type Results struct {
	Results []*core.SearchResult `json:"results"`
	Stats   Stats                `json:"stats"`
}

// HybridSearcher fuses semantic and BM25 keyword rankings over a candidate set.
// It holds no per-query state and is safe for concurrent use.
type HybridSearcher struct {
	embedder ai.Embedder
	config   Config
	logger   *slog.Logger

	// keywordDone, when set, is called as the keyword phase returns.
	keywordDone func()
}

// Option configures a HybridSearcher.
type Option func(*HybridSearcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *HybridSearcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithConfig replaces the default configuration.
func WithConfig(config *Config) Option {
	return func(s *HybridSearcher) error {
		if config == nil {
			return nil
		}
		if err := config.Validate(); err != nil {
			return err
		}
		s.config = *config
		return nil
	}
}

// NewHybridSearcher creates a new searcher.
func NewHybridSearcher(embedder ai.Embedder, opts ...Option) (*HybridSearcher, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &HybridSearcher{
		embedder: embedder,
		config:   *DefaultConfig(),
		logger:   slog.Default().With("component", "searcher"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Config returns a copy of the active configuration.
func (s *HybridSearcher) Config() Config {
	return s.config
}

// Search ranks candidates against query.
// filters maps dotted metadata paths to required values; a nil map disables filtering.
func (s *HybridSearcher) Search(ctx context.Context, query string, candidates []*core.Document, filters map[string]any) (*Results, error) {
	return s.SearchWithMonitor(ctx, query, candidates, filters, nil)
}

// SearchWithMonitor ranks candidates against query with monitoring.
// The monitor receives callbacks at each stage of the search process.
func (s *HybridSearcher) SearchWithMonitor(ctx context.Context, query string, candidates []*core.Document, filters map[string]any, monitor SearchMonitor) (*Results, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query, len(candidates))

	out := &Results{
		Results: []*core.SearchResult{},
		Stats:   Stats{CandidateCount: len(candidates)},
	}
	if len(candidates) == 0 {
		monitor.Finish(out.Results, out.Stats)
		return out, nil
	}

	// 1. Score both phases concurrently over the same read-only candidates
	var semantic, keyword []*core.SearchResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		var err error
		semantic, err = s.semanticPhase(gctx, query, candidates)
		out.Stats.SemanticDuration = time.Since(start)
		return err
	})
	g.Go(func() error {
		start := time.Now()
		keyword = s.keywordPhase(query, candidates)
		out.Stats.KeywordDuration = time.Since(start)
		if s.keywordDone != nil {
			s.keywordDone()
		}
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("search phase failed", "candidates", len(candidates), "err", err)
		return nil, err
	}
	monitor.AfterSemanticSearch(semantic)
	monitor.AfterKeywordSearch(keyword)

	// 2. Fuse top-K of each phase
	start := time.Now()
	semantic = semantic[:min(len(semantic), s.config.RerankTopK)]
	keyword = keyword[:min(len(keyword), s.config.RerankTopK)]
	out.Stats.SemanticHits = len(semantic)
	out.Stats.KeywordHits = len(keyword)

	fused := s.fuse(semantic, keyword)
	out.Stats.FusedCount = len(fused)
	monitor.AfterFusion(fused)

	// 3. Metadata filter
	if len(filters) > 0 {
		kept := fused[:0]
		for _, r := range fused {
			if core.MatchesFilters(r.Metadata, filters) {
				kept = append(kept, r)
				continue
			}
			out.Stats.FilteredOut++
			monitor.Filtered(r)
		}
		fused = kept
	}

	// 4. Rank
	sortByScore(fused)
	if len(fused) > s.config.MaxResults {
		fused = fused[:s.config.MaxResults]
	}
	out.Stats.FusionDuration = time.Since(start)
	out.Results = fused

	s.logger.Debug("search complete",
		"candidates", len(candidates),
		"results", len(fused),
		"filtered", out.Stats.FilteredOut)
	monitor.Finish(out.Results, out.Stats)
	return out, nil
}

// semanticPhase scores candidates by cosine similarity to the query embedding.
func (s *HybridSearcher) semanticPhase(ctx context.Context, query string, candidates []*core.Document) ([]*core.SearchResult, error) {
	queryVec, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", core.ErrRetrieval, err)
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Content
	}
	docVecs, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: embed candidates: %w", core.ErrRetrieval, err)
	}
	if len(docVecs) != len(candidates) {
		return nil, fmt.Errorf("%w: %w: got %d vectors for %d candidates",
			core.ErrRetrieval, ErrEmbeddingMismatch, len(docVecs), len(candidates))
	}

	scores := make([]float64, len(candidates))
	for i, v := range docVecs {
		scores[i] = cosineSimilarity(queryVec, v)
	}
	minMaxNormalize(scores)
	return rankPhase(candidates, scores, core.SourceSemantic), nil
}

// keywordPhase scores candidates with BM25 over the filtered query tokens.
func (s *HybridSearcher) keywordPhase(query string, candidates []*core.Document) []*core.SearchResult {
	corpus := make([][]string, len(candidates))
	for i, c := range candidates {
		corpus[i] = tokenizeAndFilter(c.Content)
	}
	index := newBM25Index(corpus, s.config.BM25K1, s.config.BM25B)
	terms := tokenizeAndFilter(query)

	scores := make([]float64, len(candidates))
	for i := range candidates {
		scores[i] = index.score(i, terms)
	}
	minMaxNormalize(scores)
	return rankPhase(candidates, scores, core.SourceKeyword)
}

// fuse unions the two phase lists by ID, semantic entries first, and
// computes the weighted hybrid score. A phase that did not return an ID
// contributes 0 for it. Duplicate IDs within a phase keep their first score.
func (s *HybridSearcher) fuse(semantic, keyword []*core.SearchResult) []*core.SearchResult {
	byID := make(map[string]*core.SearchResult, len(semantic)+len(keyword))
	fused := make([]*core.SearchResult, 0, len(semantic)+len(keyword))

	merge := func(phase []*core.SearchResult, set func(f *core.SearchResult, score float64)) {
		seen := make(map[string]bool, len(phase))
		for _, r := range phase {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			f, ok := byID[r.ID]
			if !ok {
				f = &core.SearchResult{
					ID:       r.ID,
					Content:  r.Content,
					Metadata: r.Metadata,
					Source:   core.SourceHybrid,
				}
				byID[r.ID] = f
				fused = append(fused, f)
			}
			set(f, r.Score)
		}
	}
	merge(semantic, func(f *core.SearchResult, score float64) { f.SemanticScore = score })
	merge(keyword, func(f *core.SearchResult, score float64) { f.KeywordScore = score })

	for _, f := range fused {
		f.Score = s.config.SemanticWeight*f.SemanticScore + s.config.KeywordWeight*f.KeywordScore
	}
	return fused
}

// rankPhase builds one phase's result list ordered by descending score.
// Candidates with equal scores keep their input order.
func rankPhase(candidates []*core.Document, scores []float64, source core.ResultSource) []*core.SearchResult {
	results := make([]*core.SearchResult, len(candidates))
	for i, c := range candidates {
		results[i] = &core.SearchResult{
			ID:       c.ID,
			Content:  c.Content,
			Score:    scores[i],
			Metadata: c.Metadata,
			Source:   source,
		}
	}
	sortByScore(results)
	return results
}

func sortByScore(results []*core.SearchResult) {
	slices.SortStableFunc(results, func(a, b *core.SearchResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
}
