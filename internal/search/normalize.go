package search

import "sort"

// normalizeAndRank min-max normalizes raw scores over the current
// result set, sorts descending with document-ID tie-break, and
// truncates to limit. When all raw scores are equal every result
// normalizes to 1.0 (there is no spread to map onto [0,1]).
func normalizeAndRank(model Model, raw map[string]float64, limit int) []ScoredResult {
	if len(raw) == 0 {
		return []ScoredResult{}
	}

	minScore, maxScore := 0.0, 0.0
	first := true
	for _, s := range raw {
		if first {
			minScore, maxScore = s, s
			first = false
			continue
		}
		if s < minScore {
			minScore = s
		}
		if s > maxScore {
			maxScore = s
		}
	}

	results := make([]ScoredResult, 0, len(raw))
	spread := maxScore - minScore
	for docID, s := range raw {
		normalized := 1.0
		if spread > 0 {
			normalized = (s - minScore) / spread
		}
		results = append(results, ScoredResult{
			DocID: docID,
			Raw:   s,
			Score: normalized,
			Model: model,
		})
	}

	sortResults(results)

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// sortResults orders by normalized score descending, ties by document
// ID ascending for determinism.
func sortResults(results []ScoredResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})
}
