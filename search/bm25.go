package search

import "math"

// bm25Index holds corpus statistics for Okapi BM25 scoring over one candidate set.
type bm25Index struct {
	k1, b     float64
	docs      []map[string]int
	docLens   []float64
	avgDocLen float64
	idf       map[string]float64
}

func newBM25Index(corpus [][]string, k1, b float64) *bm25Index {
	idx := &bm25Index{
		k1:      k1,
		b:       b,
		docs:    make([]map[string]int, len(corpus)),
		docLens: make([]float64, len(corpus)),
		idf:     make(map[string]float64),
	}

	df := make(map[string]int)
	var totalLen float64
	for i, tokens := range corpus {
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		for term := range tf {
			df[term]++
		}
		idx.docs[i] = tf
		idx.docLens[i] = float64(len(tokens))
		totalLen += float64(len(tokens))
	}
	if len(corpus) > 0 {
		idx.avgDocLen = totalLen / float64(len(corpus))
	}

	n := float64(len(corpus))
	for term, count := range df {
		idx.idf[term] = math.Log((n-float64(count)+0.5)/(float64(count)+0.5) + 1.0)
	}
	return idx
}

// score returns the BM25 score of document i for the query terms.
func (idx *bm25Index) score(i int, query []string) float64 {
	if idx.avgDocLen == 0 {
		return 0
	}
	tf := idx.docs[i]
	norm := idx.k1 * (1 - idx.b + idx.b*idx.docLens[i]/idx.avgDocLen)

	var score float64
	for _, term := range query {
		freq := float64(tf[term])
		if freq == 0 {
			continue
		}
		score += idx.idf[term] * (freq * (idx.k1 + 1)) / (freq + norm)
	}
	return score
}
