// Package index implements the per-language inverted index: term to
// posting-list mapping with positions, built from pre-tokenized
// documents.
package index

import (
	"sort"
	"sync"

	serrors "github.com/sondhan-search/sondhan/internal/errors"
	"github.com/sondhan-search/sondhan/internal/store"
)

// Posting records one term's occurrences inside one document.
type Posting struct {
	// Freq is the term frequency, always len(Positions).
	Freq int
	// Positions are token offsets in original token order.
	Positions []int
}

// Index is an inverted index over one language partition. Vocabularies
// and tokenization differ per language, so one instance per language.
//
// Writers are serialized by an internal lock; after the build phase the
// index is treated as a read-only snapshot and reads need no
// coordination beyond the shared lock.
type Index struct {
	mu          sync.RWMutex
	language    store.Language
	postings    map[string]map[string]*Posting // term -> docID -> posting
	docLengths  map[string]int                 // docID -> token count
	totalTokens int
}

// New creates an empty index for the given language partition.
func New(language store.Language) *Index {
	return &Index{
		language:   language,
		postings:   make(map[string]map[string]*Posting),
		docLengths: make(map[string]int),
	}
}

// Language returns the index's language partition.
func (ix *Index) Language() store.Language {
	return ix.language
}

// Build indexes the given documents from scratch, discarding any
// previous contents. Building twice from the same input yields
// identical postings.
func (ix *Index) Build(docs []*store.Document) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.postings = make(map[string]map[string]*Posting)
	ix.docLengths = make(map[string]int)
	ix.totalTokens = 0

	for _, doc := range docs {
		if err := ix.addLocked(doc); err != nil {
			return err
		}
	}
	return nil
}

// AddDocument indexes a single document incrementally. The result is
// identical to having included the document in the bulk build. Fails
// with ERR_401_DUPLICATE_ID if the document is already indexed.
func (ix *Index) AddDocument(doc *store.Document) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.addLocked(doc)
}

func (ix *Index) addLocked(doc *store.Document) error {
	if _, exists := ix.docLengths[doc.ID]; exists {
		return serrors.DuplicateID(doc.ID)
	}

	for pos, term := range doc.Tokens {
		byDoc, ok := ix.postings[term]
		if !ok {
			byDoc = make(map[string]*Posting)
			ix.postings[term] = byDoc
		}
		p, ok := byDoc[doc.ID]
		if !ok {
			p = &Posting{}
			byDoc[doc.ID] = p
		}
		p.Positions = append(p.Positions, pos)
		p.Freq++
	}

	ix.docLengths[doc.ID] = len(doc.Tokens)
	ix.totalTokens += len(doc.Tokens)
	return nil
}

// Postings returns the posting list for a term as docID -> posting.
// Unknown terms return an empty map, not an error. The returned map is
// a copy; position slices are shared and must not be mutated.
func (ix *Index) Postings(term string) map[string]Posting {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	byDoc := ix.postings[term]
	out := make(map[string]Posting, len(byDoc))
	for docID, p := range byDoc {
		out[docID] = *p
	}
	return out
}

// DocumentFrequency returns the number of documents containing term,
// 0 if unknown. By construction this equals the posting-list length.
func (ix *Index) DocumentFrequency(term string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.postings[term])
}

// TermFrequency returns the occurrence count of term in docID.
func (ix *Index) TermFrequency(term, docID string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if p, ok := ix.postings[term][docID]; ok {
		return p.Freq
	}
	return 0
}

// DocumentLength returns the token count of docID, 0 if unknown.
func (ix *Index) DocumentLength(docID string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.docLengths[docID]
}

// DocumentCount returns the number of indexed documents.
func (ix *Index) DocumentCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docLengths)
}

// AvgDocLength returns the mean document length in tokens.
func (ix *Index) AvgDocLength() float64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.docLengths) == 0 {
		return 0
	}
	return float64(ix.totalTokens) / float64(len(ix.docLengths))
}

// TermCount returns the vocabulary size.
func (ix *Index) TermCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.postings)
}

// Vocabulary returns all distinct terms in ascending order.
func (ix *Index) Vocabulary() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	terms := make([]string, 0, len(ix.postings))
	for term := range ix.postings {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// ForEachPosting calls fn for every posting of term under the read
// lock. fn must not call back into the index or mutate the posting.
func (ix *Index) ForEachPosting(term string, fn func(docID string, p Posting)) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	for docID, p := range ix.postings[term] {
		fn(docID, *p)
	}
}
