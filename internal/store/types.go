// Package store provides the in-memory document registry and the
// embedding vector stores for sondhan.
package store

import (
	"fmt"
	"time"
)

// Language is a corpus language partition tag (e.g. "bn", "en").
type Language string

// Document is an already-preprocessed corpus record. Tokenization and
// text normalization happen upstream; the core only consumes the token
// sequence. Documents are immutable after ingestion.
type Document struct {
	ID       string
	Title    string
	Body     string
	Language Language
	Source   string
	Date     time.Time
	Tokens   []string
}

// Stats summarizes the document store contents.
type Stats struct {
	// DocumentCount is the total number of registered documents.
	DocumentCount int
	// MeanBodyLength is the mean body length in runes.
	MeanBodyLength float64
	// ByLanguage counts documents per language partition.
	ByLanguage map[Language]int
}

// VectorResult is a single embedding-store match.
type VectorResult struct {
	// ID is the document identifier.
	ID string
	// Score is the cosine similarity in [-1, 1].
	Score float32
}

// ErrDimensionMismatch is returned when a vector's dimension does not
// match the store's declared dimension.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}
