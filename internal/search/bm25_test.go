package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sondhan-search/sondhan/internal/index"
	"github.com/sondhan-search/sondhan/internal/store"
)

func buildIndex(t *testing.T, lang store.Language, docs ...*store.Document) *index.Index {
	t.Helper()
	ix := index.New(lang)
	require.NoError(t, ix.Build(docs))
	return ix
}

func sdoc(id string, lang store.Language, tokens ...string) *store.Document {
	return &store.Document{ID: id, Language: lang, Tokens: tokens}
}

func TestBM25_FrequencyOrdersResults(t *testing.T) {
	ix := buildIndex(t, "en",
		sdoc("d1", "en", "news", "news"),
		sdoc("d2", "en", "news", "sports"),
		sdoc("d3", "en", "cricket"),
	)
	scorer := NewBM25Scorer([]*index.Index{ix}, DefaultBM25Params())

	results, err := scorer.Score(context.Background(), NewQuery("news", nil), 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "d1", results[0].DocID)
	assert.Equal(t, "d2", results[1].DocID)
	assert.Greater(t, results[0].Raw, results[1].Raw)
	for _, r := range results {
		assert.NotEqual(t, "d3", r.DocID)
	}
}

func TestBM25_UnknownTermEmptyNotError(t *testing.T) {
	ix := buildIndex(t, "en", sdoc("d1", "en", "news"))
	scorer := NewBM25Scorer([]*index.Index{ix}, DefaultBM25Params())

	results, err := scorer.Score(context.Background(), NewQuery("nonexistent", nil), 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBM25_ScoresNormalizedToUnitInterval(t *testing.T) {
	ix := buildIndex(t, "en",
		sdoc("d1", "en", "news", "news", "news"),
		sdoc("d2", "en", "news", "news", "filler"),
		sdoc("d3", "en", "news", "filler", "filler"),
		sdoc("d4", "en", "other"),
	)
	scorer := NewBM25Scorer([]*index.Index{ix}, DefaultBM25Params())

	results, err := scorer.Score(context.Background(), NewQuery("news", nil), 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.InDelta(t, 0.0, results[2].Score, 1e-9)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
	}
}

func TestBM25_SpansLanguagePartitions(t *testing.T) {
	en := buildIndex(t, "en", sdoc("e1", "en", "dhaka", "news"))
	bn := buildIndex(t, "bn", sdoc("b1", "bn", "dhaka", "খবর"))
	scorer := NewBM25Scorer([]*index.Index{en, bn}, DefaultBM25Params())

	results, err := scorer.Score(context.Background(), NewQuery("dhaka", nil), 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	ids := []string{results[0].DocID, results[1].DocID}
	assert.Contains(t, ids, "e1")
	assert.Contains(t, ids, "b1")
}

func TestBM25_EmptyIndex(t *testing.T) {
	ix := index.New("en")
	scorer := NewBM25Scorer([]*index.Index{ix}, DefaultBM25Params())

	results, err := scorer.Score(context.Background(), NewQuery("news", nil), 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBM25_CancelledContext(t *testing.T) {
	ix := buildIndex(t, "en", sdoc("d1", "en", "news"))
	scorer := NewBM25Scorer([]*index.Index{ix}, DefaultBM25Params())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := scorer.Score(ctx, NewQuery("news", nil), 10)
	assert.ErrorIs(t, err, context.Canceled)
}
