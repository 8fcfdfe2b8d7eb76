package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sondhan-search/sondhan/internal/config"
	serrors "github.com/sondhan-search/sondhan/internal/errors"
	"github.com/sondhan-search/sondhan/internal/index"
	"github.com/sondhan-search/sondhan/internal/ingest"
	"github.com/sondhan-search/sondhan/internal/search"
	"github.com/sondhan-search/sondhan/internal/store"
)

// collectCorpusFiles expands the --corpus arguments: files are taken
// as-is, directories contribute their *.jsonl entries.
func collectCorpusFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, serrors.New(serrors.ErrCodeCorpusUnreadable,
				fmt.Sprintf("stat corpus path %s", p), err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(p, "*.jsonl"))
		if err != nil {
			return nil, serrors.New(serrors.ErrCodeCorpusUnreadable,
				fmt.Sprintf("scan corpus directory %s", p), err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// loadCorpus loads every document from the given corpus paths.
func loadCorpus(paths []string) ([]*store.Document, error) {
	files, err := collectCorpusFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, serrors.New(serrors.ErrCodeCorpusUnreadable,
			"no corpus files found", nil)
	}

	var docs []*store.Document
	for _, f := range files {
		loaded, err := ingest.LoadDocuments(f)
		if err != nil {
			return nil, err
		}
		docs = append(docs, loaded...)
	}
	return docs, nil
}

// buildIndexes runs the sharded parallel build for each configured
// language partition and registers every document in the store.
func buildIndexes(ctx context.Context, cfg *config.Config, docs []*store.Document) (*store.DocumentStore, map[store.Language]*index.Index, error) {
	ds := store.NewDocumentStore()
	for _, doc := range docs {
		if err := ds.Add(doc); err != nil {
			return nil, nil, err
		}
	}

	byLanguage := make(map[store.Language][]*store.Document)
	for _, doc := range docs {
		byLanguage[doc.Language] = append(byLanguage[doc.Language], doc)
	}

	builder := index.NewBuilder(cfg.Performance.BuildWorkers)
	indexes := make(map[store.Language]*index.Index, len(cfg.Languages))
	for _, lang := range cfg.Languages {
		language := store.Language(lang)
		ix, err := builder.Build(ctx, language, byLanguage[language])
		if err != nil {
			return nil, nil, err
		}
		indexes[language] = ix
		delete(byLanguage, language)
	}

	for lang := range byLanguage {
		return nil, nil, serrors.New(serrors.ErrCodeIndexFailed,
			fmt.Sprintf("corpus contains language %q not listed in config", lang), nil)
	}
	return ds, indexes, nil
}

// snapshotPath is the on-disk location of one partition's snapshot.
func snapshotPath(dir string, lang store.Language) string {
	return filepath.Join(dir, string(lang)+".idx")
}

// loadIndexes restores every configured partition from its snapshot.
func loadIndexes(dir string, cfg *config.Config) (map[store.Language]*index.Index, error) {
	indexes := make(map[store.Language]*index.Index, len(cfg.Languages))
	for _, lang := range cfg.Languages {
		language := store.Language(lang)
		ix, err := index.Load(snapshotPath(dir, language))
		if err != nil {
			return nil, err
		}
		indexes[language] = ix
	}
	return indexes, nil
}

// newEmbeddingStore creates the configured embedding store backend and
// loads the vectors from an embedding file.
func newEmbeddingStore(cfg *config.Config, ef *ingest.EmbeddingFile) (store.EmbeddingStore, error) {
	var (
		es  store.EmbeddingStore
		err error
	)
	switch cfg.Semantic.Backend {
	case "hnsw":
		es, err = store.NewHNSWEmbeddingStore(ef.Dimensions, store.HNSWConfig{})
	default:
		es, err = store.NewMemoryEmbeddingStore(ef.Dimensions)
	}
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(ef.Vectors))
	for id := range ef.Vectors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	vectors := make([][]float32, len(ids))
	for i, id := range ids {
		vectors[i] = ef.Vectors[id]
	}
	if err := es.Add(ids, vectors); err != nil {
		return nil, err
	}
	return es, nil
}

// weightsFromConfig converts the config weight map to engine weights.
func weightsFromConfig(cfg *config.Config) search.Weights {
	if len(cfg.Fusion.Weights) == 0 {
		return search.DefaultWeights()
	}
	w := make(search.Weights, len(cfg.Fusion.Weights))
	for model, weight := range cfg.Fusion.Weights {
		w[search.Model(model)] = weight
	}
	return w
}

// buildEngine assembles the query engine from config, the index
// partitions, and the (possibly nil) embedding store.
func buildEngine(cfg *config.Config, indexes map[store.Language]*index.Index, es store.EmbeddingStore) (*search.Engine, error) {
	ordered := make([]*index.Index, 0, len(cfg.Languages))
	for _, lang := range cfg.Languages {
		ordered = append(ordered, indexes[store.Language(lang)])
	}

	scorers := []search.Scorer{
		search.NewBM25Scorer(ordered, search.BM25Params{K1: cfg.BM25.K1, B: cfg.BM25.B}),
		search.NewTFIDFScorer(ordered),
		search.NewFuzzyScorer(ordered, search.FuzzyParams{
			MaxLenDiff:    cfg.Fuzzy.MaxLenDiff,
			MinSimilarity: cfg.Fuzzy.MinSimilarity,
		}),
		search.NewSemanticScorer(es),
	}

	engineCfg := search.EngineConfig{
		Weights:         weightsFromConfig(cfg),
		Threshold:       cfg.Fusion.Threshold,
		SemanticTimeout: cfg.Semantic.Timeout,
		CacheSize:       cfg.Performance.CacheSize,
	}

	opts := []search.EngineOption{}
	if strings.EqualFold(cfg.Fusion.Strategy, "rrf") {
		opts = append(opts, search.WithFuser(
			search.NewRRFFusion(cfg.Fusion.RRFConstant, cfg.Fusion.Threshold)))
	}
	return search.NewEngine(scorers, engineCfg, opts...)
}
