package pipeline

import (
	"sync"
	"time"
)

// Stats is a snapshot of the aggregate counters for a Pipeline.
type Stats struct {
	Total          int64         `json:"total"`
	Succeeded      int64         `json:"succeeded"`
	Failed         int64         `json:"failed"`
	Rejected       int64         `json:"rejected"`
	AverageLatency time.Duration `json:"average_latency"`
}

// statsTracker accumulates Stats across concurrent Process calls.
type statsTracker struct {
	mu           sync.Mutex
	stats        Stats
	totalLatency time.Duration
}

func (s *statsTracker) record(outcome string, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Total++
	switch outcome {
	case outcomeSuccess:
		s.stats.Succeeded++
	case outcomeRejected:
		s.stats.Rejected++
	default:
		s.stats.Failed++
	}
	s.totalLatency += latency
	s.stats.AverageLatency = s.totalLatency / time.Duration(s.stats.Total)
}

func (s *statsTracker) snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
