// Package ingest loads externally prepared corpus files: JSONL
// document records, JSON embedding files, and JSONL relevance
// judgments. Text normalization, tokenization, and embedding happen
// upstream; this package only parses and validates their output.
package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	serrors "github.com/sondhan-search/sondhan/internal/errors"
	"github.com/sondhan-search/sondhan/internal/eval"
	"github.com/sondhan-search/sondhan/internal/store"
)

// maxLineBytes bounds a single JSONL record. News article bodies run
// long; 4 MiB leaves ample headroom.
const maxLineBytes = 4 * 1024 * 1024

// documentRecord is the JSONL document schema.
type documentRecord struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Language string   `json:"language"`
	Source   string   `json:"source"`
	Date     string   `json:"date"`
	Tokens   []string `json:"tokens"`
}

// LoadDocuments parses a JSONL document file. Blank lines are skipped;
// a malformed line or a record missing its ID or language fails the
// load with the offending line number.
func LoadDocuments(path string) ([]*store.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, serrors.New(serrors.ErrCodeCorpusUnreadable,
			fmt.Sprintf("open corpus file %s", path), err)
	}
	defer f.Close()

	var docs []*store.Document
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec documentRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, serrors.New(serrors.ErrCodeCorpusUnreadable,
				fmt.Sprintf("parse %s line %d", path, lineNo), err)
		}
		doc, err := rec.toDocument()
		if err != nil {
			return nil, serrors.New(serrors.ErrCodeCorpusUnreadable,
				fmt.Sprintf("invalid record at %s line %d", path, lineNo), err)
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, serrors.New(serrors.ErrCodeCorpusUnreadable,
			fmt.Sprintf("read corpus file %s", path), err)
	}
	return docs, nil
}

func (r documentRecord) toDocument() (*store.Document, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("missing document id")
	}
	if r.Language == "" {
		return nil, fmt.Errorf("document %s missing language", r.ID)
	}

	var date time.Time
	if r.Date != "" {
		parsed, err := time.Parse(time.RFC3339, r.Date)
		if err != nil {
			// Bare dates are common in scraped corpora.
			parsed, err = time.Parse("2006-01-02", r.Date)
			if err != nil {
				return nil, fmt.Errorf("document %s has unparseable date %q", r.ID, r.Date)
			}
		}
		date = parsed
	}

	return &store.Document{
		ID:       r.ID,
		Title:    r.Title,
		Body:     r.Body,
		Language: store.Language(r.Language),
		Source:   r.Source,
		Date:     date,
		Tokens:   r.Tokens,
	}, nil
}

// EmbeddingFile is the JSON embedding file schema: one model, one
// dimensionality, document vectors keyed by ID.
type EmbeddingFile struct {
	Model      string               `json:"model"`
	Dimensions int                  `json:"dimensions"`
	Vectors    map[string][]float32 `json:"vectors"`
}

// LoadEmbeddings parses and validates a JSON embedding file. Every
// vector must match the declared dimensionality.
func LoadEmbeddings(path string) (*EmbeddingFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, serrors.New(serrors.ErrCodeCorpusUnreadable,
			fmt.Sprintf("open embedding file %s", path), err)
	}

	var ef EmbeddingFile
	if err := json.Unmarshal(data, &ef); err != nil {
		return nil, serrors.New(serrors.ErrCodeCorpusUnreadable,
			fmt.Sprintf("parse embedding file %s", path), err)
	}
	if ef.Dimensions <= 0 {
		return nil, serrors.New(serrors.ErrCodeCorpusUnreadable,
			fmt.Sprintf("embedding file %s declares no dimensionality", path), nil)
	}
	for id, vec := range ef.Vectors {
		if len(vec) != ef.Dimensions {
			return nil, serrors.New(serrors.ErrCodeDimensionMismatch,
				fmt.Sprintf("embedding for %s has %d dimensions, file declares %d",
					id, len(vec), ef.Dimensions), nil).
				WithDetail("doc_id", id)
		}
	}
	return &ef, nil
}

// LoadJudgments parses a JSONL relevance judgment file into a
// judgment set.
func LoadJudgments(path string) (*eval.JudgmentSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, serrors.New(serrors.ErrCodeCorpusUnreadable,
			fmt.Sprintf("open judgment file %s", path), err)
	}
	defer f.Close()

	js := eval.NewJudgmentSet()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var j eval.Judgment
		if err := json.Unmarshal([]byte(line), &j); err != nil {
			return nil, serrors.New(serrors.ErrCodeCorpusUnreadable,
				fmt.Sprintf("parse %s line %d", path, lineNo), err)
		}
		if j.Query == "" || j.DocID == "" {
			return nil, serrors.New(serrors.ErrCodeCorpusUnreadable,
				fmt.Sprintf("judgment at %s line %d missing query or doc_id", path, lineNo), nil)
		}
		js.Add(j)
	}
	if err := scanner.Err(); err != nil {
		return nil, serrors.New(serrors.ErrCodeCorpusUnreadable,
			fmt.Sprintf("read judgment file %s", path), err)
	}
	return js, nil
}
