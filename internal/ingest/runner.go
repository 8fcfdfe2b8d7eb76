package ingest

import (
	"log/slog"

	serrors "github.com/sondhan-search/sondhan/internal/errors"
	"github.com/sondhan-search/sondhan/internal/index"
	"github.com/sondhan-search/sondhan/internal/store"
)

// Runner applies loaded documents to the document store and the
// per-language index partitions. It backs both the bulk index command
// and watch-mode incremental updates.
type Runner struct {
	docs    *store.DocumentStore
	indexes map[store.Language]*index.Index
	logger  *slog.Logger
}

// NewRunner creates a runner over the given store and partitions.
func NewRunner(docs *store.DocumentStore, indexes map[store.Language]*index.Index, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{docs: docs, indexes: indexes, logger: logger}
}

// ApplyFile loads one JSONL file and indexes its documents. Documents
// already registered are skipped with a warning; watch mode re-reads
// whole files on change, so replays are expected. Documents in a
// language without an index partition are rejected.
func (r *Runner) ApplyFile(path string) (added int, err error) {
	docs, err := LoadDocuments(path)
	if err != nil {
		return 0, err
	}
	return r.Apply(docs)
}

// Apply indexes a batch of documents.
func (r *Runner) Apply(docs []*store.Document) (added int, err error) {
	for _, doc := range docs {
		ix, ok := r.indexes[doc.Language]
		if !ok {
			return added, serrors.New(serrors.ErrCodeIndexFailed,
				"no index partition for language", nil).
				WithDetail("doc_id", doc.ID).
				WithDetail("language", string(doc.Language))
		}

		if err := r.docs.Add(doc); err != nil {
			if serrors.HasCode(err, serrors.ErrCodeDuplicateID) {
				r.logger.Warn("skipping already-indexed document", "doc_id", doc.ID)
				continue
			}
			return added, err
		}
		if err := ix.AddDocument(doc); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}
