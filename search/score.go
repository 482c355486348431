package search

import "math"

// cosineSimilarity returns the cosine of the angle between a and b,
// or 0 when either vector has zero magnitude or the lengths differ.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// minMaxNormalize rescales scores in place to [0,1]. When every score is
// equal the set carries no ranking signal: positive scores become 1 and
// non-positive scores become 0.
func minMaxNormalize(scores []float64) {
	if len(scores) == 0 {
		return
	}
	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		lo = min(lo, s)
		hi = max(hi, s)
	}

	span := hi - lo
	for i, s := range scores {
		switch {
		case span > 0:
			scores[i] = (s - lo) / span
		case hi > 0:
			scores[i] = 1
		default:
			scores[i] = 0
		}
	}
}
