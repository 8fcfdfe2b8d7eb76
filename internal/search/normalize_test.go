package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAndRank_MinMax(t *testing.T) {
	raw := map[string]float64{"a": 2, "b": 4, "c": 6}

	results := normalizeAndRank(ModelBM25, raw, 10)
	require.Len(t, results, 3)

	assert.Equal(t, "c", results[0].DocID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, "b", results[1].DocID)
	assert.InDelta(t, 0.5, results[1].Score, 1e-9)
	assert.Equal(t, "a", results[2].DocID)
	assert.InDelta(t, 0.0, results[2].Score, 1e-9)

	// Raw scores survive normalization.
	assert.InDelta(t, 6.0, results[0].Raw, 1e-9)
	assert.Equal(t, ModelBM25, results[0].Model)
}

func TestNormalizeAndRank_AllEqualScoresOne(t *testing.T) {
	raw := map[string]float64{"x": 3.5, "y": 3.5, "z": 3.5}

	results := normalizeAndRank(ModelTFIDF, raw, 10)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.InDelta(t, 1.0, r.Score, 1e-9)
	}
	// Equal scores order by document ID.
	assert.Equal(t, "x", results[0].DocID)
	assert.Equal(t, "y", results[1].DocID)
	assert.Equal(t, "z", results[2].DocID)
}

func TestNormalizeAndRank_Empty(t *testing.T) {
	results := normalizeAndRank(ModelBM25, map[string]float64{}, 10)
	assert.Empty(t, results)
	assert.NotNil(t, results)
}

func TestNormalizeAndRank_Truncates(t *testing.T) {
	raw := map[string]float64{"a": 1, "b": 2, "c": 3, "d": 4}

	results := normalizeAndRank(ModelBM25, raw, 2)
	require.Len(t, results, 2)
	assert.Equal(t, "d", results[0].DocID)
	assert.Equal(t, "c", results[1].DocID)
}
