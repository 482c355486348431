package search

import (
	"log/slog"

	"github.com/poiesic/quarry/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
// Callbacks are invoked sequentially from the goroutine that called Search.
type SearchMonitor interface {
	Start(query string, candidates int)
	AfterSemanticSearch(results []*core.SearchResult)
	AfterKeywordSearch(results []*core.SearchResult)
	AfterFusion(results []*core.SearchResult)
	Filtered(result *core.SearchResult)
	Finish(results []*core.SearchResult, stats Stats)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ int)                   {}
func (n *noopMonitor) AfterSemanticSearch(_ []*core.SearchResult) {}
func (n *noopMonitor) AfterKeywordSearch(_ []*core.SearchResult)  {}
func (n *noopMonitor) AfterFusion(_ []*core.SearchResult)         {}
func (n *noopMonitor) Filtered(_ *core.SearchResult)              {}
func (n *noopMonitor) Finish(_ []*core.SearchResult, _ Stats)     {}

// LogMonitor reports each search phase at debug level.
type LogMonitor struct {
	Logger *slog.Logger
}

var _ SearchMonitor = (*LogMonitor)(nil)

func (m *LogMonitor) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}

func (m *LogMonitor) Start(query string, candidates int) {
	m.logger().Debug("search started", "query", query, "candidates", candidates)
}

func (m *LogMonitor) AfterSemanticSearch(results []*core.SearchResult) {
	m.logger().Debug("semantic phase complete", "top", topIDs(results, 5))
}

func (m *LogMonitor) AfterKeywordSearch(results []*core.SearchResult) {
	m.logger().Debug("keyword phase complete", "top", topIDs(results, 5))
}

func (m *LogMonitor) AfterFusion(results []*core.SearchResult) {
	m.logger().Debug("fusion complete", "fused", len(results))
}

func (m *LogMonitor) Filtered(result *core.SearchResult) {
	m.logger().Debug("result excluded by filter", "id", result.ID)
}

func (m *LogMonitor) Finish(results []*core.SearchResult, stats Stats) {
	m.logger().Debug("search finished",
		"results", len(results),
		"semantic_ms", stats.SemanticDuration.Milliseconds(),
		"keyword_ms", stats.KeywordDuration.Milliseconds(),
		"fusion_ms", stats.FusionDuration.Milliseconds())
}

func topIDs(results []*core.SearchResult, n int) []string {
	ids := make([]string, 0, min(n, len(results)))
	for _, r := range results[:min(n, len(results))] {
		ids = append(ids, r.ID)
	}
	return ids
}
