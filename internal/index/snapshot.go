package index

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	serrors "github.com/sondhan-search/sondhan/internal/errors"
	"github.com/sondhan-search/sondhan/internal/store"
)

// snapshotVersion guards against loading snapshots written by an
// incompatible layout.
const snapshotVersion = 1

// snapshotPosting is the persisted form of a posting.
type snapshotPosting struct {
	Freq      int
	Positions []int
}

// snapshot is the serialized index blob: one per language, containing
// the full term -> posting mapping plus corpus-level statistics.
type snapshot struct {
	Version     int
	Language    store.Language
	DocCount    int
	TotalTokens int
	DocLengths  map[string]int
	DocFreq     map[string]int // term -> document frequency, revalidated on load
	Postings    map[string]map[string]snapshotPosting
}

// Save persists the index to path as a gob blob. The write is atomic
// (temp file + rename) and guarded by a cross-process file lock so
// concurrent writers serialize.
func (ix *Index) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock snapshot: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	ix.mu.RLock()
	snap := snapshot{
		Version:     snapshotVersion,
		Language:    ix.language,
		DocCount:    len(ix.docLengths),
		TotalTokens: ix.totalTokens,
		DocLengths:  make(map[string]int, len(ix.docLengths)),
		DocFreq:     make(map[string]int, len(ix.postings)),
		Postings:    make(map[string]map[string]snapshotPosting, len(ix.postings)),
	}
	for docID, length := range ix.docLengths {
		snap.DocLengths[docID] = length
	}
	for term, byDoc := range ix.postings {
		snap.DocFreq[term] = len(byDoc)
		out := make(map[string]snapshotPosting, len(byDoc))
		for docID, p := range byDoc {
			out[docID] = snapshotPosting{Freq: p.Freq, Positions: p.Positions}
		}
		snap.Postings[term] = out
	}
	ix.mu.RUnlock()

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}

	w := bufio.NewWriter(file)
	if err := gob.NewEncoder(w).Encode(snap); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := w.Flush(); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to flush snapshot: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close snapshot file: %w", err)
	}

	// Rename is atomic on most filesystems.
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename snapshot file: %w", err)
	}
	return nil
}

// Load reads a snapshot from path and reconstructs the index. The
// snapshot is validated for internal consistency; any mismatch fails
// fast with ERR_202_SNAPSHOT_CORRUPT.
func Load(path string) (*Index, error) {
	lock := flock.New(path + ".lock")
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("failed to lock snapshot: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, serrors.New(serrors.ErrCodeSnapshotNotFound, fmt.Sprintf("snapshot %s not found", path), err)
		}
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer file.Close()

	var snap snapshot
	if err := gob.NewDecoder(bufio.NewReader(file)).Decode(&snap); err != nil {
		return nil, serrors.SnapshotCorrupt(fmt.Sprintf("decode %s", path), err)
	}

	if err := validateSnapshot(&snap); err != nil {
		return nil, err
	}

	ix := New(snap.Language)
	ix.totalTokens = snap.TotalTokens
	ix.docLengths = snap.DocLengths
	for term, byDoc := range snap.Postings {
		dst := make(map[string]*Posting, len(byDoc))
		for docID, sp := range byDoc {
			dst[docID] = &Posting{Freq: sp.Freq, Positions: sp.Positions}
		}
		ix.postings[term] = dst
	}
	return ix, nil
}

// validateSnapshot checks the snapshot's internal consistency:
// document frequency must match posting-list length, term frequency
// must match the position count, and every posting's document must
// have a recorded length.
func validateSnapshot(snap *snapshot) error {
	if snap.Version != snapshotVersion {
		return serrors.SnapshotCorrupt(fmt.Sprintf("unsupported snapshot version %d", snap.Version), nil)
	}
	if snap.DocCount != len(snap.DocLengths) {
		return serrors.SnapshotCorrupt(fmt.Sprintf("document count %d does not match %d recorded lengths", snap.DocCount, len(snap.DocLengths)), nil)
	}

	total := 0
	for _, length := range snap.DocLengths {
		total += length
	}
	if total != snap.TotalTokens {
		return serrors.SnapshotCorrupt(fmt.Sprintf("token total %d does not match summed lengths %d", snap.TotalTokens, total), nil)
	}

	if len(snap.DocFreq) != len(snap.Postings) {
		return serrors.SnapshotCorrupt("term statistics and posting terms diverge", nil)
	}
	for term, byDoc := range snap.Postings {
		if snap.DocFreq[term] != len(byDoc) {
			return serrors.SnapshotCorrupt(fmt.Sprintf("term %q: document frequency %d does not match %d postings", term, snap.DocFreq[term], len(byDoc)), nil)
		}
		for docID, sp := range byDoc {
			if sp.Freq < 1 || sp.Freq != len(sp.Positions) {
				return serrors.SnapshotCorrupt(fmt.Sprintf("term %q doc %q: frequency %d does not match %d positions", term, docID, sp.Freq, len(sp.Positions)), nil)
			}
			if _, ok := snap.DocLengths[docID]; !ok {
				return serrors.SnapshotCorrupt(fmt.Sprintf("term %q references unknown document %q", term, docID), nil)
			}
		}
	}
	return nil
}
