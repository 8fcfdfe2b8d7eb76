package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sondhan-search/sondhan/internal/index"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "dhaka", "dhaka", 1.0},
		{"one edit of six", "colour", "color", 1 - 1.0/6},
		{"disjoint", "abc", "xyz", 0.0},
		{"bangla suffix", "ঢাকা", "ঢাকায়", 1 - 2.0/6},
		{"empty both", "", "", 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestFuzzy_ExactMatchScoresOne(t *testing.T) {
	ix := buildIndex(t, "en", sdoc("d1", "en", "dhaka"), sdoc("d2", "en", "cricket"))
	scorer := NewFuzzyScorer([]*index.Index{ix}, DefaultFuzzyParams())

	results, err := scorer.Score(context.Background(), NewQuery("dhaka", nil), 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "d1", results[0].DocID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestFuzzy_NearMatchScoresBelowExact(t *testing.T) {
	ix := buildIndex(t, "en",
		sdoc("d1", "en", "dhaka"),
		sdoc("d2", "en", "dhakka"),
	)
	scorer := NewFuzzyScorer([]*index.Index{ix}, DefaultFuzzyParams())

	results, err := scorer.Score(context.Background(), NewQuery("dhaka", nil), 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "d1", results[0].DocID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, "d2", results[1].DocID)
	assert.InDelta(t, 1-1.0/6, results[1].Score, 1e-9)
}

func TestFuzzy_TransliterationVariant(t *testing.T) {
	// "ঢাকা" vs "ঢাকায়" differ by two runes out of six.
	ix := buildIndex(t, "bn", sdoc("b1", "bn", "ঢাকায়"))
	scorer := NewFuzzyScorer([]*index.Index{ix}, DefaultFuzzyParams())

	results, err := scorer.Score(context.Background(), NewQuery("ঢাকা", nil), 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b1", results[0].DocID)
	assert.InDelta(t, 1-2.0/6, results[0].Score, 1e-9)
}

func TestFuzzy_LengthPruningSkipsDistantTerms(t *testing.T) {
	// Rune length differs by more than the pruning bound, so the pair
	// is never compared regardless of prefix overlap.
	ix := buildIndex(t, "en", sdoc("d1", "en", "dhakashire"))
	scorer := NewFuzzyScorer([]*index.Index{ix}, DefaultFuzzyParams())

	results, err := scorer.Score(context.Background(), NewQuery("dhaka", nil), 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFuzzy_MinSimilarityFilters(t *testing.T) {
	// Same length, but similarity 1/5 falls below the 0.6 floor.
	ix := buildIndex(t, "en", sdoc("d1", "en", "zzzza"))
	scorer := NewFuzzyScorer([]*index.Index{ix}, DefaultFuzzyParams())

	results, err := scorer.Score(context.Background(), NewQuery("dhaka", nil), 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFuzzy_PartialMatchAveragesOverQueryTerms(t *testing.T) {
	// One of two query terms matches, so the score is 1/2.
	ix := buildIndex(t, "en", sdoc("d1", "en", "dhaka"))
	scorer := NewFuzzyScorer([]*index.Index{ix}, DefaultFuzzyParams())

	results, err := scorer.Score(context.Background(), NewQuery("dhaka nonexistent", nil), 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 0.5, results[0].Score, 1e-9)
}

func TestFuzzy_BestVariantPerTermWins(t *testing.T) {
	// A document holding both an exact and a near variant scores with
	// the exact one only.
	ix := buildIndex(t, "en", sdoc("d1", "en", "dhaka", "dhakka"))
	scorer := NewFuzzyScorer([]*index.Index{ix}, DefaultFuzzyParams())

	results, err := scorer.Score(context.Background(), NewQuery("dhaka", nil), 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestFuzzy_ZeroParamsDefaultIndependently(t *testing.T) {
	// A partially set FuzzyParams fills in the other default: with only
	// the similarity floor given, the length bound still admits terms
	// up to two runes longer.
	ix := buildIndex(t, "bn", sdoc("b1", "bn", "ঢাকায়"))
	scorer := NewFuzzyScorer([]*index.Index{ix}, FuzzyParams{MinSimilarity: 0.6})

	assert.Equal(t, DefaultFuzzyMaxLenDiff, scorer.params.MaxLenDiff)

	results, err := scorer.Score(context.Background(), NewQuery("ঢাকা", nil), 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b1", results[0].DocID)

	scorer = NewFuzzyScorer([]*index.Index{ix}, FuzzyParams{MaxLenDiff: 1})
	assert.InDelta(t, DefaultFuzzyMinSimilarity, scorer.params.MinSimilarity, 1e-9)
	assert.Equal(t, 1, scorer.params.MaxLenDiff)
}

func TestFuzzy_EmptyQueryTerms(t *testing.T) {
	ix := buildIndex(t, "en", sdoc("d1", "en", "dhaka"))
	scorer := NewFuzzyScorer([]*index.Index{ix}, DefaultFuzzyParams())

	results, err := scorer.Score(context.Background(), Query{}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFuzzy_CancelledContext(t *testing.T) {
	ix := buildIndex(t, "en", sdoc("d1", "en", "dhaka"))
	scorer := NewFuzzyScorer([]*index.Index{ix}, DefaultFuzzyParams())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := scorer.Score(ctx, NewQuery("dhaka", nil), 10)
	assert.ErrorIs(t, err, context.Canceled)
}
