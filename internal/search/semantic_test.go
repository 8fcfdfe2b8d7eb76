package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/sondhan-search/sondhan/internal/errors"
	"github.com/sondhan-search/sondhan/internal/store"
)

func seedEmbeddings(t *testing.T) *store.MemoryEmbeddingStore {
	t.Helper()
	es, err := store.NewMemoryEmbeddingStore(3)
	require.NoError(t, err)
	require.NoError(t, es.Add(
		[]string{"d1", "d2", "d3"},
		[][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{-1, 0, 0},
		},
	))
	return es
}

func TestSemantic_RanksByCosine(t *testing.T) {
	scorer := NewSemanticScorer(seedEmbeddings(t))

	results, err := scorer.Score(context.Background(), NewQuery("q", []float32{1, 0, 0}), 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Identical vector: cos 1 maps to 1. Orthogonal: cos 0 maps to
	// 0.5. Opposite: cos -1 maps to 0.
	assert.Equal(t, "d1", results[0].DocID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, "d2", results[1].DocID)
	assert.InDelta(t, 0.5, results[1].Score, 1e-6)
	assert.Equal(t, "d3", results[2].DocID)
	assert.InDelta(t, 0.0, results[2].Score, 1e-6)
}

func TestSemantic_TruncatesToLimit(t *testing.T) {
	scorer := NewSemanticScorer(seedEmbeddings(t))

	results, err := scorer.Score(context.Background(), NewQuery("q", []float32{1, 0, 0}), 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSemantic_MissingEmbeddingDegrades(t *testing.T) {
	scorer := NewSemanticScorer(seedEmbeddings(t))

	_, err := scorer.Score(context.Background(), NewQuery("q", nil), 10)
	require.Error(t, err)
	assert.True(t, serrors.HasCode(err, serrors.ErrCodeEmbeddingUnavailable))
}

func TestSemantic_EmptyStoreDegrades(t *testing.T) {
	es, err := store.NewMemoryEmbeddingStore(3)
	require.NoError(t, err)
	scorer := NewSemanticScorer(es)

	_, err = scorer.Score(context.Background(), NewQuery("q", []float32{1, 0, 0}), 10)
	require.Error(t, err)
	assert.True(t, serrors.HasCode(err, serrors.ErrCodeEmbeddingUnavailable))
}

func TestSemantic_NilStoreDegrades(t *testing.T) {
	scorer := NewSemanticScorer(nil)

	_, err := scorer.Score(context.Background(), NewQuery("q", []float32{1, 0, 0}), 10)
	require.Error(t, err)
	assert.True(t, serrors.HasCode(err, serrors.ErrCodeEmbeddingUnavailable))
}

func TestSemantic_DimensionMismatch(t *testing.T) {
	scorer := NewSemanticScorer(seedEmbeddings(t))

	_, err := scorer.Score(context.Background(), NewQuery("q", []float32{1, 0}), 10)
	require.Error(t, err)
	assert.True(t, serrors.HasCode(err, serrors.ErrCodeEmbeddingUnavailable))

	var dim store.ErrDimensionMismatch
	require.ErrorAs(t, err, &dim)
	assert.Equal(t, 3, dim.Expected)
	assert.Equal(t, 2, dim.Got)
}
