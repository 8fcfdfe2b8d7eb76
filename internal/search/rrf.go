package search

// DefaultRRFConstant is the standard RRF smoothing parameter.
// k=60 is empirically validated across domains.
const DefaultRRFConstant = 60

// RRFFusion combines per-model lists using Reciprocal Rank Fusion:
//
//	score(d) = Σ over models weight[m] / (k + rank_m(d))
//
// with 1-indexed ranks. Rank-based fusion is an alternative to the
// weighted score sum when the per-model score distributions are too
// dissimilar to compare directly. A document missing from a model's
// list simply receives no contribution from that model.
type RRFFusion struct {
	// K is the smoothing constant.
	K int
	// Threshold flags (not filters) weak combined scores.
	Threshold float64
}

// NewRRFFusion creates an RRF fuser. k <= 0 defaults to 60.
func NewRRFFusion(k int, threshold float64) *RRFFusion {
	if k <= 0 {
		k = DefaultRRFConstant
	}
	return &RRFFusion{K: k, Threshold: threshold}
}

// Fuse merges the per-model lists by reciprocal rank. The per-model
// score breakdown retains each model's normalized score, not the rank
// contribution, so consumers inspect the same breakdown either way.
func (f *RRFFusion) Fuse(lists map[Model][]ScoredResult, weights Weights) ([]*FusedResult, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	fused := make(map[string]*FusedResult)
	for model, results := range lists {
		weight := weights[model]
		for rank, r := range results {
			entry, ok := fused[r.DocID]
			if !ok {
				entry = &FusedResult{
					DocID:       r.DocID,
					ModelScores: make(map[Model]float64),
				}
				fused[r.DocID] = entry
			}
			entry.ModelScores[model] = r.Score
			entry.Score += weight / float64(f.K+rank+1)
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
