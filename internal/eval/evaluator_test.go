package eval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/sondhan-search/sondhan/internal/errors"
	"github.com/sondhan-search/sondhan/internal/search"
)

// stubSearcher returns a canned ranking per query text.
type stubSearcher struct {
	rankings map[string][]string
	err      error
	calls    int
}

func (s *stubSearcher) Search(ctx context.Context, text string, opts search.SearchOptions) (*search.Response, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	fused := make([]*search.FusedResult, 0)
	for i, docID := range s.rankings[text] {
		fused = append(fused, &search.FusedResult{DocID: docID, Rank: i + 1})
	}
	return &search.Response{Fused: fused}, nil
}

func TestJudgmentSet_AnyAnnotatorRelevantWins(t *testing.T) {
	js := NewJudgmentSet()
	js.Add(Judgment{Query: "dhaka", DocID: "d1", Relevant: false, Annotator: "a1"})
	js.Add(Judgment{Query: "dhaka", DocID: "d1", Relevant: true, Annotator: "a2"})
	js.Add(Judgment{Query: "dhaka", DocID: "d2", Relevant: true, Annotator: "a1"})
	js.Add(Judgment{Query: "dhaka", DocID: "d2", Relevant: false, Annotator: "a2"})
	js.Add(Judgment{Query: "dhaka", DocID: "d3", Relevant: false, Annotator: "a1"})

	relevant := js.Relevant("dhaka")
	assert.True(t, relevant["d1"])
	assert.True(t, relevant["d2"])
	assert.False(t, relevant["d3"])
}

func TestJudgmentSet_QueriesSorted(t *testing.T) {
	js := NewJudgmentSet()
	js.Add(Judgment{Query: "zebra", DocID: "d1", Relevant: true})
	js.Add(Judgment{Query: "apple", DocID: "d2", Relevant: true})

	assert.Equal(t, []string{"apple", "zebra"}, js.Queries())
	assert.Equal(t, 2, js.Len())
}

func TestEvaluator_Run(t *testing.T) {
	searcher := &stubSearcher{rankings: map[string][]string{
		"q1": {"a", "x"},
		"q2": {"x", "b"},
	}}

	js := NewJudgmentSet()
	js.Add(Judgment{Query: "q1", DocID: "a", Relevant: true})
	js.Add(Judgment{Query: "q2", DocID: "b", Relevant: true})

	e := NewEvaluator(searcher, 2, nil)
	report, err := e.Run(context.Background(), js)
	require.NoError(t, err)
	require.Len(t, report.PerQuery, 2)
	assert.Equal(t, 2, report.K)

	q1 := report.PerQuery[0]
	assert.Equal(t, "q1", q1.Query)
	assert.InDelta(t, 0.5, q1.Precision, 1e-9)
	assert.InDelta(t, 1.0, q1.Recall, 1e-9)
	assert.InDelta(t, 1.0, q1.NDCG, 1e-9)
	assert.InDelta(t, 1.0, q1.ReciprocalRank, 1e-9)
	assert.Equal(t, 1, q1.RelevantTotal)

	q2 := report.PerQuery[1]
	assert.InDelta(t, 0.5, q2.ReciprocalRank, 1e-9)

	// MRR is the mean of per-query reciprocal ranks.
	assert.InDelta(t, 0.75, report.Mean.ReciprocalRank, 1e-9)
	assert.InDelta(t, 0.5, report.Mean.Precision, 1e-9)
	assert.InDelta(t, 1.0, report.Mean.Recall, 1e-9)
}

func TestEvaluator_SearchFailureAborts(t *testing.T) {
	searcher := &stubSearcher{err: serrors.New(serrors.ErrCodeSearchFailed, "boom", nil)}

	js := NewJudgmentSet()
	js.Add(Judgment{Query: "q1", DocID: "a", Relevant: true})

	e := NewEvaluator(searcher, 10, nil)
	_, err := e.Run(context.Background(), js)
	require.Error(t, err)
	assert.True(t, serrors.HasCode(err, serrors.ErrCodeSearchFailed))
}

func TestEvaluator_EmptyJudgmentSet(t *testing.T) {
	e := NewEvaluator(&stubSearcher{}, 10, nil)
	report, err := e.Run(context.Background(), NewJudgmentSet())
	require.NoError(t, err)
	assert.Empty(t, report.PerQuery)
	assert.Zero(t, report.Mean.Precision)
}

func TestEvaluator_CancelledContext(t *testing.T) {
	js := NewJudgmentSet()
	js.Add(Judgment{Query: "q1", DocID: "a", Relevant: true})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewEvaluator(&stubSearcher{}, 10, nil)
	_, err := e.Run(ctx, js)
	assert.ErrorIs(t, err, context.Canceled)
}
