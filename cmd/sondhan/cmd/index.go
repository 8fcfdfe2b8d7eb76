package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sondhan-search/sondhan/internal/config"
	"github.com/sondhan-search/sondhan/internal/index"
	"github.com/sondhan-search/sondhan/internal/ingest"
	"github.com/sondhan-search/sondhan/internal/store"
)

type indexOptions struct {
	corpus  []string
	out     string
	workers int
	watch   bool
}

func newIndexCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build index snapshots from a JSONL corpus",
		Long: `Build one inverted index per configured language partition from
preprocessed JSONL corpus files and save gob snapshots.

With --watch the command keeps running and incrementally indexes new
or changed corpus files in the watched directories.

Examples:
  sondhan index --corpus corpus/ --out .sondhan/index
  sondhan index --corpus bn.jsonl --corpus en.jsonl --out .sondhan/index
  sondhan index --corpus corpus/ --out .sondhan/index --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.corpus, "corpus", "c", nil, "Corpus JSONL file or directory (repeatable)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", ".sondhan/index", "Snapshot output directory")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Build worker count (default: config)")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Keep watching corpus directories for changes")
	_ = cmd.MarkFlagRequired("corpus")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, opts indexOptions) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if opts.workers > 0 {
		cfg.Performance.BuildWorkers = opts.workers
	}

	docs, err := loadCorpus(opts.corpus)
	if err != nil {
		return err
	}
	slog.Info("corpus loaded", slog.Int("documents", len(docs)))

	ds, indexes, err := buildIndexes(ctx, cfg, docs)
	if err != nil {
		return err
	}

	if err := saveSnapshots(indexes, opts.out); err != nil {
		return err
	}

	for _, lang := range cfg.Languages {
		ix := indexes[store.Language(lang)]
		fmt.Fprintf(cmd.OutOrStdout(), "indexed %s: %d documents, %d terms\n",
			lang, ix.DocumentCount(), ix.TermCount())
	}

	if !opts.watch {
		return nil
	}
	return watchCorpus(ctx, cmd, opts, ds, indexes)
}

func saveSnapshots(indexes map[store.Language]*index.Index, dir string) error {
	for lang, ix := range indexes {
		if err := ix.Save(snapshotPath(dir, lang)); err != nil {
			return err
		}
		slog.Info("snapshot saved",
			slog.String("language", string(lang)),
			slog.String("path", snapshotPath(dir, lang)))
	}
	return nil
}

// watchCorpus blocks, incrementally indexing changed corpus files and
// re-saving snapshots after each applied batch.
func watchCorpus(ctx context.Context, cmd *cobra.Command, opts indexOptions, ds *store.DocumentStore, indexes map[store.Language]*index.Index) error {
	runner := ingest.NewRunner(ds, indexes, slog.Default())

	watcher, err := ingest.NewWatcher(0)
	if err != nil {
		return err
	}
	defer watcher.Stop()

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var dirs []string
	for _, p := range opts.corpus {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			dirs = append(dirs, p)
		}
	}
	if len(dirs) == 0 {
		return fmt.Errorf("--watch requires at least one corpus directory")
	}

	errCh := make(chan error, 1)
	go func() { errCh <- watcher.Start(watchCtx, dirs...) }()

	fmt.Fprintln(cmd.OutOrStdout(), "watching for corpus changes (ctrl-c to stop)")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			if err != nil && ctx.Err() == nil {
				return err
			}
		case err := <-watcher.Errors():
			slog.Warn("watch error", "error", err)
		case batch, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			for _, path := range batch {
				added, err := runner.ApplyFile(path)
				if err != nil {
					slog.Warn("skipping corpus file", "path", path, "error", err)
					continue
				}
				if added == 0 {
					continue
				}
				slog.Info("incrementally indexed", "path", path, "documents", added)
				if err := saveSnapshots(indexes, opts.out); err != nil {
					return err
				}
			}
		}
	}
}
