package search

import (
	"context"

	serrors "github.com/sondhan-search/sondhan/internal/errors"
	"github.com/sondhan-search/sondhan/internal/store"
)

var _ Scorer = (*SemanticScorer)(nil)

// SemanticScorer ranks documents by embedding-space similarity to an
// externally computed query embedding. The core never invokes an
// embedding model; it only compares vectors in the supplied store.
type SemanticScorer struct {
	store store.EmbeddingStore
}

// NewSemanticScorer creates a semantic scorer over the embedding store.
func NewSemanticScorer(embeddings store.EmbeddingStore) *SemanticScorer {
	return &SemanticScorer{store: embeddings}
}

// Model returns ModelSemantic.
func (s *SemanticScorer) Model() Model { return ModelSemantic }

// Score returns the top-limit documents by cosine similarity, ties
// broken by document ID. Cosine in [-1,1] is mapped to [0,1] via
// (cos+1)/2. Fails with ERR_405_EMBEDDING_UNAVAILABLE when no query
// embedding was supplied, the store is empty, or dimensions mismatch.
func (s *SemanticScorer) Score(ctx context.Context, q Query, limit int) ([]ScoredResult, error) {
	if s.store == nil || s.store.Count() == 0 {
		return nil, serrors.EmbeddingUnavailable("embedding store is empty", nil)
	}
	if q.Embedding == nil {
		return nil, serrors.EmbeddingUnavailable("query embedding not supplied", nil)
	}
	if len(q.Embedding) != s.store.Dimensions() {
		return nil, serrors.EmbeddingUnavailable(
			"query embedding dimension mismatch",
			store.ErrDimensionMismatch{Expected: s.store.Dimensions(), Got: len(q.Embedding)},
		)
	}

	matches, err := s.store.Search(ctx, q.Embedding, limit)
	if err != nil {
		return nil, err
	}

	results := make([]ScoredResult, len(matches))
	for i, m := range matches {
		cos := float64(m.Score)
		results[i] = ScoredResult{
			DocID: m.ID,
			Raw:   cos,
			Score: (cos + 1) / 2,
			Model: ModelSemantic,
		}
	}
	return results, nil
}
