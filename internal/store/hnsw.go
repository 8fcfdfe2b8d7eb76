package store

import (
	"context"
	"sort"
	"sync"

	"github.com/coder/hnsw"
)

// HNSWEmbeddingStore is an approximate embedding store backed by a
// pure-Go HNSW graph. Recall is governed by the graph parameters
// (M, EfSearch); for the corpus sizes sondhan targets the defaults
// recover the exact top-k in practice, but the contract is approximate.
// Use MemoryEmbeddingStore when exact top-k is required.
type HNSWEmbeddingStore struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[uint64]
	dims  int

	// ID mapping (string <-> uint64)
	idMap   map[string]uint64
	keyMap  map[uint64]string
	nextKey uint64
}

// HNSWConfig tunes the HNSW graph.
type HNSWConfig struct {
	// M is the maximum connections per node. Default: 16.
	M int
	// EfSearch is the search beam width. Default: 20.
	EfSearch int
}

// NewHNSWEmbeddingStore creates an HNSW-backed embedding store with a
// fixed vector dimension.
func NewHNSWEmbeddingStore(dims int, cfg HNSWConfig) (*HNSWEmbeddingStore, error) {
	if dims <= 0 {
		return nil, ErrDimensionMismatch{Expected: 1, Got: dims}
	}
	if cfg.M == 0 {
		cfg.M = 16
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 20
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25

	return &HNSWEmbeddingStore{
		graph:  graph,
		dims:   dims,
		idMap:  make(map[string]uint64),
		keyMap: make(map[uint64]string),
	}, nil
}

// Add inserts vectors with their IDs. Re-adding an ID orphans the old
// graph node rather than deleting it (lazy deletion).
func (s *HNSWEmbeddingStore) Add(ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return ErrDimensionMismatch{Expected: len(ids), Got: len(vectors)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range vectors {
		if len(v) != s.dims {
			return ErrDimensionMismatch{Expected: s.dims, Got: len(v)}
		}
	}

	for i, id := range ids {
		if existingKey, exists := s.idMap[id]; exists {
			// Lazy deletion: orphan the old key, keep the node in the graph.
			delete(s.keyMap, existingKey)
			delete(s.idMap, id)
		}

		key := s.nextKey
		s.nextKey++

		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])
		normalizeVectorInPlace(vec)

		s.graph.Add(hnsw.MakeNode(key, vec))
		s.idMap[id] = key
		s.keyMap[key] = id
	}
	return nil
}

// Search finds the k approximate nearest neighbors by cosine similarity.
func (s *HNSWEmbeddingStore) Search(ctx context.Context, query []float32, k int) ([]VectorResult, error) {
	if len(query) != s.dims {
		return nil, ErrDimensionMismatch{Expected: s.dims, Got: len(query)}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.graph.Len() == 0 || k <= 0 {
		return []VectorResult{}, nil
	}

	q := make([]float32, len(query))
	copy(q, query)
	normalizeVectorInPlace(q)

	// Over-fetch to compensate for orphaned nodes: lazily deleted
	// nodes stay in the graph, so the live count is graph.Len minus
	// the ID map size.
	orphans := s.graph.Len() - len(s.idMap)
	nodes := s.graph.Search(q, k+orphans)

	results := make([]VectorResult, 0, len(nodes))
	for _, node := range nodes {
		id, ok := s.keyMap[node.Key]
		if !ok {
			continue // orphaned by lazy deletion
		}
		// CosineDistance = 1 - cosine similarity.
		sim := 1 - s.graph.Distance(q, node.Value)
		results = append(results, VectorResult{ID: id, Score: sim})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Dimensions returns the declared vector dimension.
func (s *HNSWEmbeddingStore) Dimensions() int { return s.dims }

// Count returns the number of live vectors.
func (s *HNSWEmbeddingStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.idMap)
}
