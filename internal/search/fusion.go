package search

import (
	"fmt"
	"sort"

	serrors "github.com/sondhan-search/sondhan/internal/errors"
)

// Weights maps a model to its non-negative fusion weight.
type Weights map[Model]float64

// DefaultWeights returns the default model weights, tuned for
// cross-lingual news retrieval where semantic similarity carries the
// most signal.
func DefaultWeights() Weights {
	return Weights{
		ModelBM25:     0.3,
		ModelTFIDF:    0.2,
		ModelFuzzy:    0.2,
		ModelSemantic: 0.3,
	}
}

// Validate fails with ERR_103_INVALID_WEIGHTS when any weight is
// negative or the weights do not sum to a positive value. Called at
// configuration time, before any query runs.
func (w Weights) Validate() error {
	sum := 0.0
	for model, weight := range w {
		if weight < 0 {
			return serrors.InvalidWeights(fmt.Sprintf("weight for %s is negative", model))
		}
		sum += weight
	}
	if sum <= 0 {
		return serrors.InvalidWeights("fusion weights must sum to a positive value")
	}
	return nil
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	sum := 0.0
	for _, weight := range w {
		sum += weight
	}
	return sum
}

// FusedResult is one entry of the final ranking, with the per-model
// score breakdown retained for inspection.
type FusedResult struct {
	// DocID is the document identifier.
	DocID string
	// Score is the combined score.
	Score float64
	// Rank is the 1-indexed position in the fused list.
	Rank int
	// ModelScores is the per-model normalized score breakdown. Models
	// that did not return the document are absent.
	ModelScores map[Model]float64
	// BelowThreshold flags results whose combined score fell below the
	// confidence threshold. Flagged, never filtered: display treatment
	// is the consumer's decision.
	BelowThreshold bool
}

// Fuser merges per-model ranked lists into one ranked list.
type Fuser interface {
	Fuse(lists map[Model][]ScoredResult, weights Weights) ([]*FusedResult, error)
}

// WeightedFusion combines per-model normalized scores by weighted sum:
//
//	combined(d) = Σ over models (weight[m] × score[m][d])
//
// A document missing from a model's list contributes 0 for that model.
type WeightedFusion struct {
	// Threshold is the confidence threshold used to flag weak results.
	Threshold float64
}

// NewWeightedFusion creates the default fusion strategy.
func NewWeightedFusion(threshold float64) *WeightedFusion {
	return &WeightedFusion{Threshold: threshold}
}

// Fuse merges the per-model lists. Output is sorted by combined score
// descending, ties broken by document ID ascending.
func (f *WeightedFusion) Fuse(lists map[Model][]ScoredResult, weights Weights) ([]*FusedResult, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	fused := make(map[string]*FusedResult)
	for model, results := range lists {
		weight := weights[model]
		for _, r := range results {
			entry, ok := fused[r.DocID]
			if !ok {
				entry = &FusedResult{
					DocID:       r.DocID,
					ModelScores: make(map[Model]float64),
				}
				fused[r.DocID] = entry
			}
			entry.ModelScores[model] = r.Score
			entry.Score += weight * r.Score
		}
	}

	out := make([]*FusedResult, 0, len(fused))
	for _, entry := range fused {
		entry.BelowThreshold = entry.Score < f.Threshold
		out = append(out, entry)
	}

	sortFused(out)
	return out, nil
}

// sortFused orders by combined score descending with document-ID
// tie-break, then assigns 1-indexed ranks.
func sortFused(results []*FusedResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})
	for i, r := range results {
		r.Rank = i + 1
	}
}
