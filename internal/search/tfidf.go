package search

import (
	"context"
	"math"

	"github.com/sondhan-search/sondhan/internal/index"
)

var _ Scorer = (*TFIDFScorer)(nil)

// TFIDFScorer computes cosine similarity between the query's TF-IDF
// weight vector and each document's weight vector, with
// weight = tf * ln(N/df) and zero weight for unknown terms.
//
// Document vector norms span the full vocabulary, so they are
// precomputed at construction. Construct the scorer after the index
// build completes; the index is immutable at serve time.
type TFIDFScorer struct {
	indexes  []*index.Index
	docNorms []map[string]float64 // per index: docID -> |d|
}

// NewTFIDFScorer creates a TF-IDF scorer over the given indexes.
func NewTFIDFScorer(indexes []*index.Index) *TFIDFScorer {
	s := &TFIDFScorer{
		indexes:  indexes,
		docNorms: make([]map[string]float64, len(indexes)),
	}

	for i, ix := range indexes {
		norms := make(map[string]float64, ix.DocumentCount())
		n := float64(ix.DocumentCount())
		for _, term := range ix.Vocabulary() {
			df := float64(ix.DocumentFrequency(term))
			idf := math.Log(n / df)
			if idf == 0 {
				continue
			}
			for docID, p := range ix.Postings(term) {
				w := float64(p.Freq) * idf
				norms[docID] += w * w
			}
		}
		for docID, sq := range norms {
			norms[docID] = math.Sqrt(sq)
		}
		s.docNorms[i] = norms
	}
	return s
}

// Model returns ModelTFIDF.
func (s *TFIDFScorer) Model() Model { return ModelTFIDF }

// Score computes per-document cosine similarity against the query
// vector, then min-max normalizes over the result set.
func (s *TFIDFScorer) Score(ctx context.Context, q Query, limit int) ([]ScoredResult, error) {
	raw := make(map[string]float64)

	// Query term frequencies.
	qtf := make(map[string]int, len(q.Terms))
	for _, t := range q.Terms {
		qtf[t]++
	}

	for i, ix := range s.indexes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n := float64(ix.DocumentCount())
		if n == 0 {
			continue
		}

		// Query weights under this partition's statistics.
		qWeights := make(map[string]float64, len(qtf))
		qNormSq := 0.0
		for term, tf := range qtf {
			df := float64(ix.DocumentFrequency(term))
			if df == 0 {
				continue // unknown term, zero weight
			}
			idf := math.Log(n / df)
			if idf == 0 {
				continue
			}
			w := float64(tf) * idf
			qWeights[term] = w
			qNormSq += w * w
		}
		if qNormSq == 0 {
			continue
		}
		qNorm := math.Sqrt(qNormSq)

		dots := make(map[string]float64)
		for term, qw := range qWeights {
			df := float64(ix.DocumentFrequency(term))
			idf := math.Log(n / df)
			for docID, p := range ix.Postings(term) {
				dots[docID] += qw * float64(p.Freq) * idf
			}
		}

		for docID, dotProduct := range dots {
			docNorm := s.docNorms[i][docID]
			if docNorm == 0 {
				continue
			}
			raw[docID] = dotProduct / (qNorm * docNorm)
		}
	}

	return normalizeAndRank(ModelTFIDF, raw, limit), nil
}
