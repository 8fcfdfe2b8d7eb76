package store

import (
	"iter"
	"sync"
	"unicode/utf8"

	serrors "github.com/sondhan-search/sondhan/internal/errors"
)

// DocumentStore is the authoritative in-memory registry of documents.
// It is safe for concurrent use; after the batch ingest phase it is
// effectively read-only.
type DocumentStore struct {
	mu    sync.RWMutex
	docs  map[string]*Document
	order []string // insertion order, for deterministic iteration
}

// NewDocumentStore creates an empty document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		docs: make(map[string]*Document),
	}
}

// Add registers a document. Fails with ERR_401_DUPLICATE_ID if the
// identifier is already present.
func (s *DocumentStore) Add(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[doc.ID]; exists {
		return serrors.DuplicateID(doc.ID)
	}
	s.docs[doc.ID] = doc
	s.order = append(s.order, doc.ID)
	return nil
}

// Get returns the document with the given identifier, or
// ERR_402_DOCUMENT_NOT_FOUND if absent.
func (s *DocumentStore) Get(id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, serrors.DocumentNotFound(id)
	}
	return doc, nil
}

// Contains reports whether the identifier is registered.
func (s *DocumentStore) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.docs[id]
	return ok
}

// FilterByLanguage returns a lazy, restartable sequence of documents in
// the given language partition, in insertion order.
func (s *DocumentStore) FilterByLanguage(lang Language) iter.Seq[*Document] {
	return func(yield func(*Document) bool) {
		s.mu.RLock()
		ids := make([]string, len(s.order))
		copy(ids, s.order)
		s.mu.RUnlock()

		for _, id := range ids {
			s.mu.RLock()
			doc := s.docs[id]
			s.mu.RUnlock()
			if doc == nil || doc.Language != lang {
				continue
			}
			if !yield(doc) {
				return
			}
		}
	}
}

// All returns a lazy, restartable sequence over every document in
// insertion order.
func (s *DocumentStore) All() iter.Seq[*Document] {
	return func(yield func(*Document) bool) {
		s.mu.RLock()
		ids := make([]string, len(s.order))
		copy(ids, s.order)
		s.mu.RUnlock()

		for _, id := range ids {
			s.mu.RLock()
			doc := s.docs[id]
			s.mu.RUnlock()
			if doc == nil {
				continue
			}
			if !yield(doc) {
				return
			}
		}
	}
}

// Count returns the number of registered documents.
func (s *DocumentStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Statistics returns document count, mean body length (runes), and
// per-language counts.
func (s *DocumentStore) Statistics() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		DocumentCount: len(s.docs),
		ByLanguage:    make(map[Language]int),
	}

	total := 0
	for _, doc := range s.docs {
		total += utf8.RuneCountInString(doc.Body)
		stats.ByLanguage[doc.Language]++
	}
	if len(s.docs) > 0 {
		stats.MeanBodyLength = float64(total) / float64(len(s.docs))
	}
	return stats
}
