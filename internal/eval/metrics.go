// Package eval implements binary-relevance retrieval metrics and the
// judged-query evaluation runner.
package eval

import "math"

// PrecisionAtK is the fraction of the top k ranked positions holding a
// relevant document. Rankings shorter than k are padded with
// non-relevant placeholders: the divisor is always k, so a system that
// returns too few results is penalized rather than flattered.
func PrecisionAtK(ranked []string, relevant map[string]bool, k int) float64 {
	if k <= 0 {
		return 0
	}
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	hits := 0
	for _, docID := range ranked {
		if relevant[docID] {
			hits++
		}
	}
	return float64(hits) / float64(k)
}

// RecallAtK is the fraction of all relevant documents appearing in the
// top k. A query with no relevant documents scores 0.
func RecallAtK(ranked []string, relevant map[string]bool, k int) float64 {
	total := 0
	for _, rel := range relevant {
		if rel {
			total++
		}
	}
	if total == 0 || k <= 0 {
		return 0
	}
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	hits := 0
	for _, docID := range ranked {
		if relevant[docID] {
			hits++
		}
	}
	return float64(hits) / float64(total)
}

// NDCGAtK is normalized discounted cumulative gain with binary gains:
// a relevant document at 1-indexed rank r contributes 1/log2(r+1).
// The ideal DCG places all relevant documents first. A query with no
// relevant documents scores 0; a ranking with every relevant document
// on top scores 1.
func NDCGAtK(ranked []string, relevant map[string]bool, k int) float64 {
	total := 0
	for _, rel := range relevant {
		if rel {
			total++
		}
	}
	if total == 0 || k <= 0 {
		return 0
	}
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	dcg := 0.0
	for i, docID := range ranked {
		if relevant[docID] {
			dcg += 1 / math.Log2(float64(i)+2)
		}
	}

	ideal := 0.0
	n := total
	if n > k {
		n = k
	}
	for i := 0; i < n; i++ {
		ideal += 1 / math.Log2(float64(i)+2)
	}
	if ideal == 0 {
		return 0
	}
	return dcg / ideal
}

// ReciprocalRank is 1/r for the 1-indexed rank r of the first relevant
// document, 0 when none is ranked.
func ReciprocalRank(ranked []string, relevant map[string]bool) float64 {
	for i, docID := range ranked {
		if relevant[docID] {
			return 1 / float64(i+1)
		}
	}
	return 0
}

// MRR is the mean of reciprocal ranks over a set of rankings, one per
// query. Empty input scores 0.
func MRR(rankings [][]string, relevants []map[string]bool) float64 {
	if len(rankings) == 0 || len(rankings) != len(relevants) {
		return 0
	}
	sum := 0.0
	for i, ranked := range rankings {
		sum += ReciprocalRank(ranked, relevants[i])
	}
	return sum / float64(len(rankings))
}
