package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sondhan-search/sondhan/internal/store"
)

func newStatsCmd() *cobra.Command {
	var corpus []string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print corpus statistics",
		Long: `Load a JSONL corpus and print document counts, per-language
partition sizes, and mean body length.

Examples:
  sondhan stats --corpus corpus/
  sondhan stats --corpus bn.jsonl --corpus en.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, corpus)
		},
	}

	cmd.Flags().StringSliceVarP(&corpus, "corpus", "c", nil, "Corpus JSONL file or directory (repeatable)")
	_ = cmd.MarkFlagRequired("corpus")

	return cmd
}

func runStats(cmd *cobra.Command, corpus []string) error {
	docs, err := loadCorpus(corpus)
	if err != nil {
		return err
	}

	ds := store.NewDocumentStore()
	for _, doc := range docs {
		if err := ds.Add(doc); err != nil {
			return err
		}
	}
	stats := ds.Statistics()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "documents:        %d\n", stats.DocumentCount)
	fmt.Fprintf(out, "mean body length: %.1f runes\n", stats.MeanBodyLength)

	langs := make([]string, 0, len(stats.ByLanguage))
	for lang := range stats.ByLanguage {
		langs = append(langs, string(lang))
	}
	sort.Strings(langs)
	for _, lang := range langs {
		fmt.Fprintf(out, "  %-4s %d\n", lang, stats.ByLanguage[store.Language(lang)])
	}
	return nil
}
