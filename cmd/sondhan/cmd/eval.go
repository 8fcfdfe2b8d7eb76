package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sondhan-search/sondhan/internal/config"
	"github.com/sondhan-search/sondhan/internal/eval"
	"github.com/sondhan-search/sondhan/internal/ingest"
)

type evalOptions struct {
	judgments  string
	indexDir   string
	corpus     []string
	embeddings string
	k          int
}

func newEvalCmd() *cobra.Command {
	var opts evalOptions

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate ranking quality against relevance judgments",
		Long: `Run every judged query through the engine and report Precision@k,
Recall@k, nDCG@k, and reciprocal rank per query plus unweighted means.

Judgments are JSONL records {"query", "doc_id", "relevant", "annotator"}.

Examples:
  sondhan eval --judgments judgments.jsonl --index .sondhan/index
  sondhan eval --judgments judgments.jsonl --corpus corpus/ --k 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.judgments, "judgments", "j", "", "Relevance judgment JSONL file")
	cmd.Flags().StringVarP(&opts.indexDir, "index", "i", "", "Snapshot directory to load")
	cmd.Flags().StringSliceVarP(&opts.corpus, "corpus", "c", nil, "Corpus JSONL file or directory to index in memory (repeatable)")
	cmd.Flags().StringVarP(&opts.embeddings, "embeddings", "e", "", "Document embedding JSON file")
	cmd.Flags().IntVarP(&opts.k, "k", "k", 10, "Metric cutoff")
	_ = cmd.MarkFlagRequired("judgments")

	return cmd
}

func runEval(ctx context.Context, cmd *cobra.Command, opts evalOptions) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	js, err := ingest.LoadJudgments(opts.judgments)
	if err != nil {
		return err
	}

	engine, err := assembleEngine(ctx, cfg, opts.indexDir, opts.corpus, opts.embeddings)
	if err != nil {
		return err
	}

	evaluator := eval.NewEvaluator(engine, opts.k, nil)
	report, err := evaluator.Run(ctx, js)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-32s %8s %8s %8s %8s\n", "query", "P@"+itoa(report.K), "R@"+itoa(report.K), "nDCG", "RR")
	for _, m := range report.PerQuery {
		fmt.Fprintf(out, "%-32s %8.4f %8.4f %8.4f %8.4f\n",
			truncateQuery(m.Query), m.Precision, m.Recall, m.NDCG, m.ReciprocalRank)
	}
	fmt.Fprintf(out, "%-32s %8.4f %8.4f %8.4f %8.4f\n",
		"MEAN", report.Mean.Precision, report.Mean.Recall, report.Mean.NDCG, report.Mean.ReciprocalRank)
	return nil
}

func itoa(n int) string {
	return fmt.Sprintf("%d", n)
}

func truncateQuery(q string) string {
	runes := []rune(q)
	if len(runes) <= 32 {
		return q
	}
	return string(runes[:29]) + "..."
}
