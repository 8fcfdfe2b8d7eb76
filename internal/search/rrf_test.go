package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRRF_CombinesByRank(t *testing.T) {
	fuser := NewRRFFusion(60, 0)
	lists := map[Model][]ScoredResult{
		ModelBM25: {
			{DocID: "d1", Score: 1.0},
			{DocID: "d2", Score: 0.9},
		},
		ModelSemantic: {
			{DocID: "d2", Score: 1.0},
			{DocID: "d1", Score: 0.8},
		},
	}
	weights := Weights{ModelBM25: 1.0, ModelSemantic: 1.0}

	fused, err := fuser.Fuse(lists, weights)
	require.NoError(t, err)
	require.Len(t, fused, 2)

	// Both docs hold rank 1 in one list and rank 2 in the other, so
	// the combined scores tie and document ID breaks it.
	want := 1.0/61 + 1.0/62
	assert.InDelta(t, want, fused[0].Score, 1e-12)
	assert.InDelta(t, want, fused[1].Score, 1e-12)
	assert.Equal(t, "d1", fused[0].DocID)
	assert.Equal(t, "d2", fused[1].DocID)
}

func TestRRF_WeightsScaleContributions(t *testing.T) {
	fuser := NewRRFFusion(60, 0)
	lists := map[Model][]ScoredResult{
		ModelBM25:     {{DocID: "a", Score: 1.0}},
		ModelSemantic: {{DocID: "b", Score: 1.0}},
	}
	weights := Weights{ModelBM25: 2.0, ModelSemantic: 1.0}

	fused, err := fuser.Fuse(lists, weights)
	require.NoError(t, err)
	require.Len(t, fused, 2)

	assert.Equal(t, "a", fused[0].DocID)
	assert.InDelta(t, 2.0/61, fused[0].Score, 1e-12)
	assert.InDelta(t, 1.0/61, fused[1].Score, 1e-12)
}

func TestRRF_RetainsNormalizedScoreBreakdown(t *testing.T) {
	fuser := NewRRFFusion(60, 0)
	lists := map[Model][]ScoredResult{
		ModelBM25: {{DocID: "a", Score: 0.75}},
	}

	fused, err := fuser.Fuse(lists, Weights{ModelBM25: 1.0})
	require.NoError(t, err)
	require.Len(t, fused, 1)
	assert.InDelta(t, 0.75, fused[0].ModelScores[ModelBM25], 1e-9)
}

func TestRRF_DefaultConstant(t *testing.T) {
	fuser := NewRRFFusion(0, 0)
	assert.Equal(t, DefaultRRFConstant, fuser.K)
}
