package eval

import (
	"context"
	"log/slog"
	"sort"

	"github.com/sondhan-search/sondhan/internal/search"
)

// Judgment is one human relevance label for a query/document pair.
type Judgment struct {
	Query     string `json:"query"`
	DocID     string `json:"doc_id"`
	Relevant  bool   `json:"relevant"`
	Annotator string `json:"annotator,omitempty"`
}

// JudgmentSet groups judgments by query text. A document counts as
// relevant for a query when any annotator marked it relevant.
type JudgmentSet struct {
	byQuery map[string]map[string]bool
}

// NewJudgmentSet creates an empty judgment set.
func NewJudgmentSet() *JudgmentSet {
	return &JudgmentSet{byQuery: make(map[string]map[string]bool)}
}

// Add records one judgment.
func (js *JudgmentSet) Add(j Judgment) {
	docs, ok := js.byQuery[j.Query]
	if !ok {
		docs = make(map[string]bool)
		js.byQuery[j.Query] = docs
	}
	if j.Relevant {
		docs[j.DocID] = true
	} else if _, seen := docs[j.DocID]; !seen {
		docs[j.DocID] = false
	}
}

// Queries returns the judged query texts in sorted order.
func (js *JudgmentSet) Queries() []string {
	queries := make([]string, 0, len(js.byQuery))
	for q := range js.byQuery {
		queries = append(queries, q)
	}
	sort.Strings(queries)
	return queries
}

// Relevant returns the relevance labels for one query. The returned
// map is the set's own; callers must not mutate it.
func (js *JudgmentSet) Relevant(query string) map[string]bool {
	return js.byQuery[query]
}

// Len reports the number of judged queries.
func (js *JudgmentSet) Len() int {
	return len(js.byQuery)
}

// QueryMetrics holds the metrics for one judged query.
type QueryMetrics struct {
	Query          string
	Precision      float64
	Recall         float64
	NDCG           float64
	ReciprocalRank float64
	Retrieved      int
	RelevantTotal  int
}

// Report is the outcome of an evaluation run.
type Report struct {
	K        int
	PerQuery []QueryMetrics
	// Mean holds the unweighted means over PerQuery; its
	// ReciprocalRank field is the MRR.
	Mean QueryMetrics
}

// Searcher is the engine surface the evaluator needs.
type Searcher interface {
	Search(ctx context.Context, text string, opts search.SearchOptions) (*search.Response, error)
}

// Evaluator runs a judged query set through a search engine and
// reports per-query and mean metrics.
type Evaluator struct {
	searcher Searcher
	k        int
	logger   *slog.Logger
}

// NewEvaluator creates an evaluator computing metrics at cutoff k.
func NewEvaluator(searcher Searcher, k int, logger *slog.Logger) *Evaluator {
	if k <= 0 {
		k = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{searcher: searcher, k: k, logger: logger}
}

// Run evaluates every judged query. A query whose search fails aborts
// the run; metrics over a partial run would not be comparable.
func (e *Evaluator) Run(ctx context.Context, js *JudgmentSet) (*Report, error) {
	report := &Report{K: e.k}

	for _, query := range js.Queries() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := e.searcher.Search(ctx, query, search.SearchOptions{TopK: e.k})
		if err != nil {
			return nil, err
		}

		ranked := make([]string, len(resp.Fused))
		for i, r := range resp.Fused {
			ranked[i] = r.DocID
		}
		relevant := js.Relevant(query)

		relevantTotal := 0
		for _, rel := range relevant {
			if rel {
				relevantTotal++
			}
		}

		m := QueryMetrics{
			Query:          query,
			Precision:      PrecisionAtK(ranked, relevant, e.k),
			Recall:         RecallAtK(ranked, relevant, e.k),
			NDCG:           NDCGAtK(ranked, relevant, e.k),
			ReciprocalRank: ReciprocalRank(ranked, relevant),
			Retrieved:      len(ranked),
			RelevantTotal:  relevantTotal,
		}
		report.PerQuery = append(report.PerQuery, m)

		e.logger.Debug("evaluated query",
			"query", query,
			"precision", m.Precision,
			"recall", m.Recall,
			"ndcg", m.NDCG)
	}

	report.Mean = aggregate(report.PerQuery)
	return report, nil
}

// aggregate computes unweighted means over per-query metrics. Every
// judged query counts equally regardless of its relevant set size.
func aggregate(perQuery []QueryMetrics) QueryMetrics {
	if len(perQuery) == 0 {
		return QueryMetrics{}
	}
	var mean QueryMetrics
	for _, m := range perQuery {
		mean.Precision += m.Precision
		mean.Recall += m.Recall
		mean.NDCG += m.NDCG
		mean.ReciprocalRank += m.ReciprocalRank
	}
	n := float64(len(perQuery))
	mean.Precision /= n
	mean.Recall /= n
	mean.NDCG /= n
	mean.ReciprocalRank /= n
	return mean
}
