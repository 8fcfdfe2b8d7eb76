package index

import (
	"context"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	serrors "github.com/sondhan-search/sondhan/internal/errors"
	"github.com/sondhan-search/sondhan/internal/store"
)

// Builder constructs an index from a document batch using a worker
// pool. Documents are sharded by range, partially indexed in parallel,
// then merged under exclusive access. Shards are document-disjoint, so
// the merge is a plain union and the result is identical to a
// sequential build.
type Builder struct {
	workers int
}

// NewBuilder creates a builder with the given worker count.
// workers <= 0 defaults to runtime.NumCPU().
func NewBuilder(workers int) *Builder {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Builder{workers: workers}
}

// partial is one shard's private posting data.
type partial struct {
	postings   map[string]map[string]*Posting
	docLengths map[string]int
	total      int
	err        error
}

// Build indexes docs into a fresh index for the language partition.
func (b *Builder) Build(ctx context.Context, language store.Language, docs []*store.Document) (*Index, error) {
	ix := New(language)
	if len(docs) == 0 {
		return ix, nil
	}

	shards := b.shard(docs)
	partials := make([]partial, len(shards))

	pool, err := ants.NewPool(b.workers)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrCodeIndexFailed, err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, shard := range shards {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		i, shard := i, shard
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			partials[i] = buildPartial(shard)
		}); err != nil {
			wg.Done()
			return nil, serrors.Wrap(serrors.ErrCodeIndexFailed, err)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Merge under the writer lock.
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, p := range partials {
		if p.err != nil {
			return nil, p.err
		}
		for term, byDoc := range p.postings {
			dst, ok := ix.postings[term]
			if !ok {
				ix.postings[term] = byDoc
				continue
			}
			for docID, posting := range byDoc {
				dst[docID] = posting
			}
		}
		for docID, length := range p.docLengths {
			if _, exists := ix.docLengths[docID]; exists {
				return nil, serrors.DuplicateID(docID)
			}
			ix.docLengths[docID] = length
		}
		ix.totalTokens += p.total
	}

	return ix, nil
}

// shard splits docs into at most b.workers contiguous ranges.
func (b *Builder) shard(docs []*store.Document) [][]*store.Document {
	n := b.workers
	if n > len(docs) {
		n = len(docs)
	}

	shards := make([][]*store.Document, 0, n)
	size := (len(docs) + n - 1) / n
	for start := 0; start < len(docs); start += size {
		end := start + size
		if end > len(docs) {
			end = len(docs)
		}
		shards = append(shards, docs[start:end])
	}
	return shards
}

// buildPartial indexes one shard into private maps.
func buildPartial(docs []*store.Document) partial {
	p := partial{
		postings:   make(map[string]map[string]*Posting),
		docLengths: make(map[string]int),
	}

	for _, doc := range docs {
		if _, exists := p.docLengths[doc.ID]; exists {
			p.err = serrors.DuplicateID(doc.ID)
			return p
		}
		for pos, term := range doc.Tokens {
			byDoc, ok := p.postings[term]
			if !ok {
				byDoc = make(map[string]*Posting)
				p.postings[term] = byDoc
			}
			pst, ok := byDoc[doc.ID]
			if !ok {
				pst = &Posting{}
				byDoc[doc.ID] = pst
			}
			pst.Positions = append(pst.Positions, pos)
			pst.Freq++
		}
		p.docLengths[doc.ID] = len(doc.Tokens)
		p.total += len(doc.Tokens)
	}
	return p
}
