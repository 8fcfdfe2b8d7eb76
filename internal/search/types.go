// Package search implements the per-model scorers (lexical, fuzzy,
// semantic), rank fusion, and the query engine that runs them
// concurrently over read-only index snapshots.
package search

import (
	"context"
	"strings"
)

// Model identifies a scoring strategy.
type Model string

const (
	ModelBM25     Model = "bm25"
	ModelTFIDF    Model = "tfidf"
	ModelFuzzy    Model = "fuzzy"
	ModelSemantic Model = "semantic"
)

// ScoredResult is a single per-model match for a query. Results are
// ephemeral: created per query, never persisted.
type ScoredResult struct {
	// DocID is the document identifier.
	DocID string
	// Raw is the model's unnormalized score.
	Raw float64
	// Score is the normalized score in [0, 1].
	Score float64
	// Model tags the originating scorer.
	Model Model
}

// Query is a normalized query ready for scoring. Text normalization
// and (for semantic scoring) embedding happen upstream.
type Query struct {
	// Text is the already language-normalized query string.
	Text string
	// Terms is Text split on whitespace.
	Terms []string
	// Embedding is the externally computed query vector, nil when
	// semantic scoring is not requested.
	Embedding []float32
}

// NewQuery builds a Query from normalized query text.
func NewQuery(text string, embedding []float32) Query {
	return Query{
		Text:      text,
		Terms:     strings.Fields(text),
		Embedding: embedding,
	}
}

// Scorer scores documents against a query. Implementations are pure
// read operations over immutable snapshots and must be safe for
// concurrent use.
//
// Score returns at most limit results sorted by normalized score
// descending, ties broken by document ID ascending. A query matching
// nothing yields an empty slice, not an error.
type Scorer interface {
	Model() Model
	Score(ctx context.Context, q Query, limit int) ([]ScoredResult, error)
}
