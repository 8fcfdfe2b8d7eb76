package search

import (
	"context"
	"math"

	"github.com/sondhan-search/sondhan/internal/index"
)

var _ Scorer = (*BM25Scorer)(nil)

// BM25Params are the BM25 tuning parameters.
type BM25Params struct {
	// K1 controls term-frequency saturation.
	K1 float64
	// B controls document-length normalization.
	B float64
}

// DefaultBM25Params returns the standard k1=1.5, b=0.75 defaults.
func DefaultBM25Params() BM25Params {
	return BM25Params{K1: 1.5, B: 0.75}
}

// BM25Scorer computes BM25 relevance over one or more language
// partitions. Document IDs are unique across partitions, so raw scores
// from all partitions share one result set and are normalized together.
type BM25Scorer struct {
	indexes []*index.Index
	params  BM25Params
}

// NewBM25Scorer creates a BM25 scorer over the given indexes.
func NewBM25Scorer(indexes []*index.Index, params BM25Params) *BM25Scorer {
	if params.K1 <= 0 {
		params = DefaultBM25Params()
	}
	return &BM25Scorer{indexes: indexes, params: params}
}

// Model returns ModelBM25.
func (s *BM25Scorer) Model() Model { return ModelBM25 }

// Score sums per-term BM25 contributions over query terms present in
// the index:
//
//	IDF(t) * tf * (k1+1) / (tf + k1 * (1 - b + b*|d|/avgdl))
//
// with IDF(t) = ln((N - df + 0.5) / (df + 0.5) + 1).
func (s *BM25Scorer) Score(ctx context.Context, q Query, limit int) ([]ScoredResult, error) {
	raw := make(map[string]float64)

	for _, ix := range s.indexes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n := ix.DocumentCount()
		avgdl := ix.AvgDocLength()
		if n == 0 || avgdl == 0 {
			continue
		}

		for _, term := range q.Terms {
			df := ix.DocumentFrequency(term)
			if df == 0 {
				continue
			}
			idf := math.Log((float64(n)-float64(df)+0.5)/(float64(df)+0.5) + 1)

			for docID, p := range ix.Postings(term) {
				tf := float64(p.Freq)
				dl := float64(ix.DocumentLength(docID))
				denom := tf + s.params.K1*(1-s.params.B+s.params.B*dl/avgdl)
				raw[docID] += idf * tf * (s.params.K1 + 1) / denom
			}
		}
	}

	return normalizeAndRank(ModelBM25, raw, limit), nil
}
