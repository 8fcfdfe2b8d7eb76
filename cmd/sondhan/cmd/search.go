package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sondhan-search/sondhan/internal/config"
	"github.com/sondhan-search/sondhan/internal/index"
	"github.com/sondhan-search/sondhan/internal/ingest"
	"github.com/sondhan-search/sondhan/internal/search"
	"github.com/sondhan-search/sondhan/internal/store"
)

type searchOptions struct {
	indexDir       string
	corpus         []string
	embeddings     string
	queryEmbedding string
	limit          int
	format         string
	explain        bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Query the indexed corpus",
		Long: `Query the corpus with all four scoring models and print the fused
ranking. Query text must already be normalized and whitespace-tokenized
the same way the corpus was.

The semantic model needs --embeddings plus --query-embedding (a JSON
array file produced by the external embedding pipeline); without them
the query degrades to the lexical and fuzzy models.

Examples:
  sondhan search "ঢাকা বৃষ্টি" --index .sondhan/index
  sondhan search "dhaka rain" --corpus corpus/ --limit 5
  sondhan search "dhaka rain" --index .sondhan/index \
    --embeddings embeddings.json --query-embedding query-vec.json
  sondhan search "dhaka rain" --index .sondhan/index --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.indexDir, "index", "i", "", "Snapshot directory to load")
	cmd.Flags().StringSliceVarP(&opts.corpus, "corpus", "c", nil, "Corpus JSONL file or directory to index in memory (repeatable)")
	cmd.Flags().StringVarP(&opts.embeddings, "embeddings", "e", "", "Document embedding JSON file")
	cmd.Flags().StringVar(&opts.queryEmbedding, "query-embedding", "", "Query embedding JSON array file")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "Show per-model score breakdown")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	engine, err := assembleEngine(ctx, cfg, opts.indexDir, opts.corpus, opts.embeddings)
	if err != nil {
		return err
	}

	var embedding []float32
	if opts.queryEmbedding != "" {
		embedding, err = loadQueryEmbedding(opts.queryEmbedding)
		if err != nil {
			return err
		}
	}

	resp, err := engine.Search(ctx, query, search.SearchOptions{
		TopK:      opts.limit,
		Embedding: embedding,
	})
	if err != nil {
		return err
	}

	if opts.format == "json" {
		return printJSON(cmd, query, resp)
	}
	printText(cmd, query, resp, opts.explain)
	return nil
}

// assembleEngine builds the query engine from either saved snapshots
// or an in-memory build of the corpus, plus optional embeddings.
func assembleEngine(ctx context.Context, cfg *config.Config, indexDir string, corpus []string, embeddings string) (*search.Engine, error) {
	var (
		indexes map[store.Language]*index.Index
		err     error
	)
	switch {
	case indexDir != "":
		indexes, err = loadIndexes(indexDir, cfg)
	case len(corpus) > 0:
		var docs []*store.Document
		docs, err = loadCorpus(corpus)
		if err == nil {
			_, indexes, err = buildIndexes(ctx, cfg, docs)
		}
	default:
		return nil, fmt.Errorf("either --index or --corpus is required")
	}
	if err != nil {
		return nil, err
	}

	var es store.EmbeddingStore
	if embeddings != "" {
		ef, err := ingest.LoadEmbeddings(embeddings)
		if err != nil {
			return nil, err
		}
		es, err = newEmbeddingStore(cfg, ef)
		if err != nil {
			return nil, err
		}
	}
	return buildEngine(cfg, indexes, es)
}

// loadQueryEmbedding reads a JSON array of numbers.
func loadQueryEmbedding(path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read query embedding %s: %w", path, err)
	}
	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, fmt.Errorf("parse query embedding %s: %w", path, err)
	}
	return vec, nil
}

func printText(cmd *cobra.Command, query string, resp *search.Response, explain bool) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "query: %s (%d results, %s)\n", query, len(resp.Fused), resp.Elapsed.Round(time.Microsecond))
	if len(resp.Degraded) > 0 {
		names := make([]string, len(resp.Degraded))
		for i, m := range resp.Degraded {
			names[i] = string(m)
		}
		fmt.Fprintf(out, "degraded models: %s\n", strings.Join(names, ", "))
	}

	for _, r := range resp.Fused {
		marker := ""
		if r.BelowThreshold {
			marker = " (low confidence)"
		}
		fmt.Fprintf(out, "%3d. %-24s %.4f%s\n", r.Rank, r.DocID, r.Score, marker)
		if explain {
			models := make([]string, 0, len(r.ModelScores))
			for m := range r.ModelScores {
				models = append(models, string(m))
			}
			sort.Strings(models)
			for _, m := range models {
				fmt.Fprintf(out, "       %-10s %.4f\n", m, r.ModelScores[search.Model(m)])
			}
		}
	}
}

type jsonResult struct {
	Rank           int                `json:"rank"`
	DocID          string             `json:"doc_id"`
	Score          float64            `json:"score"`
	BelowThreshold bool               `json:"below_threshold,omitempty"`
	ModelScores    map[string]float64 `json:"model_scores"`
}

func printJSON(cmd *cobra.Command, query string, resp *search.Response) error {
	results := make([]jsonResult, len(resp.Fused))
	for i, r := range resp.Fused {
		scores := make(map[string]float64, len(r.ModelScores))
		for m, s := range r.ModelScores {
			scores[string(m)] = s
		}
		results[i] = jsonResult{
			Rank:           r.Rank,
			DocID:          r.DocID,
			Score:          r.Score,
			BelowThreshold: r.BelowThreshold,
			ModelScores:    scores,
		}
	}

	degraded := make([]string, len(resp.Degraded))
	for i, m := range resp.Degraded {
		degraded[i] = string(m)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"query":      query,
		"results":    results,
		"degraded":   degraded,
		"elapsed_ms": float64(resp.Elapsed.Microseconds()) / 1000,
	})
}
