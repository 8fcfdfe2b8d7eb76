package search

import (
	"context"

	"github.com/agnivade/levenshtein"

	"github.com/sondhan-search/sondhan/internal/index"
)

// DefaultFuzzyMaxLenDiff is the length-difference pruning bound: a
// vocabulary term is only compared against a query term when their
// rune lengths differ by at most this many runes. The bound keeps the
// worst case proportional to vocabulary size rather than all pairwise
// edit distances.
const DefaultFuzzyMaxLenDiff = 2

// DefaultFuzzyMinSimilarity is the minimum normalized similarity for a
// vocabulary term to count as a fuzzy match.
const DefaultFuzzyMinSimilarity = 0.6

var _ Scorer = (*FuzzyScorer)(nil)

// FuzzyParams tune the fuzzy matcher.
type FuzzyParams struct {
	// MaxLenDiff is the pruning bound in runes.
	MaxLenDiff int
	// MinSimilarity filters out weak matches.
	MinSimilarity float64
}

// DefaultFuzzyParams returns the documented defaults.
func DefaultFuzzyParams() FuzzyParams {
	return FuzzyParams{
		MaxLenDiff:    DefaultFuzzyMaxLenDiff,
		MinSimilarity: DefaultFuzzyMinSimilarity,
	}
}

// FuzzyScorer recovers matches missed by exact lexical lookup due to
// transliteration or spelling variance. It compares query terms
// against both language vocabularies with rune-level Levenshtein
// distance, so Bangla and Latin scripts are measured in characters,
// not bytes.
type FuzzyScorer struct {
	indexes []*index.Index
	params  FuzzyParams
}

// NewFuzzyScorer creates a fuzzy scorer over the given indexes. Each
// unset parameter defaults independently.
func NewFuzzyScorer(indexes []*index.Index, params FuzzyParams) *FuzzyScorer {
	if params.MaxLenDiff <= 0 {
		params.MaxLenDiff = DefaultFuzzyMaxLenDiff
	}
	if params.MinSimilarity <= 0 {
		params.MinSimilarity = DefaultFuzzyMinSimilarity
	}
	return &FuzzyScorer{indexes: indexes, params: params}
}

// Model returns ModelFuzzy.
func (s *FuzzyScorer) Model() Model { return ModelFuzzy }

// Score computes, for each query term, the best similarity against the
// vocabulary terms appearing in each document; a document's score is
// the sum of those best similarities divided by the query term count,
// so it is bounded in [0, 1] by construction, and partial matches
// score below full matches.
func (s *FuzzyScorer) Score(ctx context.Context, q Query, limit int) ([]ScoredResult, error) {
	if len(q.Terms) == 0 {
		return []ScoredResult{}, nil
	}

	// best[docID][termIndex] = best similarity of query term i against
	// any vocabulary term present in that document.
	best := make(map[string][]float64)

	for _, ix := range s.indexes {
		vocab := ix.Vocabulary()

		for qi, qt := range q.Terms {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			qtLen := len([]rune(qt))

			for _, vt := range vocab {
				diff := len([]rune(vt)) - qtLen
				if diff < -s.params.MaxLenDiff || diff > s.params.MaxLenDiff {
					continue
				}

				sim := similarity(qt, vt)
				if sim < s.params.MinSimilarity {
					continue
				}

				for docID := range ix.Postings(vt) {
					sims, ok := best[docID]
					if !ok {
						sims = make([]float64, len(q.Terms))
						best[docID] = sims
					}
					if sim > sims[qi] {
						sims[qi] = sim
					}
				}
			}
		}
	}

	raw := make(map[string]float64, len(best))
	for docID, sims := range best {
		total := 0.0
		for _, sim := range sims {
			total += sim
		}
		raw[docID] = total / float64(len(q.Terms))
	}

	results := make([]ScoredResult, 0, len(raw))
	for docID, score := range raw {
		// Similarity is already bounded in [0,1]; no min-max pass.
		results = append(results, ScoredResult{
			DocID: docID,
			Raw:   score,
			Score: score,
			Model: ModelFuzzy,
		})
	}
	sortResults(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// similarity is 1 minus the Levenshtein distance normalized by the
// longer term's rune length.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
