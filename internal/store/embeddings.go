package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// EmbeddingStore holds externally computed document embedding vectors
// and serves nearest-neighbor lookups. The core never computes
// embeddings; it only stores and compares.
//
// Implementations must be thread-safe for concurrent reads.
type EmbeddingStore interface {
	// Add inserts vectors with their document IDs.
	Add(ids []string, vectors [][]float32) error

	// Search finds the k vectors most similar to query by cosine
	// similarity. Ties are broken by document ID ascending.
	Search(ctx context.Context, query []float32, k int) ([]VectorResult, error)

	// Dimensions returns the fixed vector dimension.
	Dimensions() int

	// Count returns the number of stored vectors.
	Count() int
}

// MemoryEmbeddingStore is the exact brute-force embedding store.
// It is the default backend: the top-k contract is exact.
type MemoryEmbeddingStore struct {
	mu   sync.RWMutex
	dims int
	ids  []string
	vecs map[string][]float32 // unit-normalized
}

// NewMemoryEmbeddingStore creates a brute-force store with a fixed
// vector dimension declared at load time.
func NewMemoryEmbeddingStore(dims int) (*MemoryEmbeddingStore, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dims)
	}
	return &MemoryEmbeddingStore{
		dims: dims,
		vecs: make(map[string][]float32),
	}, nil
}

// Add inserts vectors. Vectors are unit-normalized on insert so search
// reduces to a dot product. Re-adding an ID replaces its vector.
func (s *MemoryEmbeddingStore) Add(ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, id := range ids {
		if len(vectors[i]) != s.dims {
			return ErrDimensionMismatch{Expected: s.dims, Got: len(vectors[i])}
		}
		vec := make([]float32, s.dims)
		copy(vec, vectors[i])
		normalizeVectorInPlace(vec)

		if _, exists := s.vecs[id]; !exists {
			s.ids = append(s.ids, id)
		}
		s.vecs[id] = vec
	}
	return nil
}

// Search scans every stored vector and returns the top-k by cosine
// similarity, ties broken by document ID ascending.
func (s *MemoryEmbeddingStore) Search(ctx context.Context, query []float32, k int) ([]VectorResult, error) {
	if len(query) != s.dims {
		return nil, ErrDimensionMismatch{Expected: s.dims, Got: len(query)}
	}
	if k <= 0 {
		return []VectorResult{}, nil
	}

	q := make([]float32, s.dims)
	copy(q, query)
	normalizeVectorInPlace(q)

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]VectorResult, 0, len(s.ids))
	for i, id := range s.ids {
		// Linear scan; honor cancellation on large corpora.
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		results = append(results, VectorResult{ID: id, Score: dot(q, s.vecs[id])})
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
func (s *MemoryEmbeddingStore) Dimensions() int { return s.dims }

// Count returns the number of stored vectors.
func (s *MemoryEmbeddingStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// dot computes the dot product of two equal-length vectors.
// For unit vectors this equals cosine similarity.
func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// normalizeVectorInPlace scales the vector to unit length.
// Zero vectors are left unchanged.
func normalizeVectorInPlace(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}
