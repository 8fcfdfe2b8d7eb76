package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceWindow batches rapid successive writes to the same
// file (editors and scrapers write in chunks) into one event.
const DefaultDebounceWindow = 500 * time.Millisecond

// Watcher watches a flat ingest directory for new or changed JSONL
// corpus files and emits debounced batches of changed paths.
type Watcher struct {
	fsw     *fsnotify.Watcher
	window  time.Duration
	events  chan []string
	errors  chan error
	stopCh  chan struct{}
	mu      sync.Mutex
	stopped bool
}

// NewWatcher creates a watcher. window <= 0 uses the default debounce
// window.
func NewWatcher(window time.Duration) (*Watcher, error) {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create filesystem watcher: %w", err)
	}
	return &Watcher{
		fsw:    fsw,
		window: window,
		events: make(chan []string, 16),
		errors: make(chan error, 4),
		stopCh: make(chan struct{}),
	}, nil
}

// Start watches the given directories until the context is cancelled
// or Stop is called. It blocks; run it in a goroutine and consume
// Events and Errors.
func (w *Watcher) Start(ctx context.Context, dirs ...string) error {
	if len(dirs) == 0 {
		return fmt.Errorf("no ingest directories to watch")
	}
	for _, dir := range dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("resolve ingest directory: %w", err)
		}
		if err := w.fsw.Add(abs); err != nil {
			return fmt.Errorf("watch ingest directory: %w", err)
		}
	}

	pending := make(map[string]struct{})
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !isCorpusFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			pending[event.Name] = struct{}{}
			if timerC == nil {
				timerC = time.After(w.window)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		case <-timerC:
			timerC = nil
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for path := range pending {
				batch = append(batch, path)
			}
			sort.Strings(batch)
			pending = make(map[string]struct{})
			w.emit(batch)
		}
	}
}

func isCorpusFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".jsonl")
}

// emit holds the mutex across the send so Stop cannot close the
// channel between the stopped check and the send. The send is
// non-blocking, so the lock is never held waiting on a consumer.
func (w *Watcher) emit(batch []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	select {
	case w.events <- batch:
	default:
		// Consumer is behind; the files are still on disk and the
		// next change will pick them up.
	}
}

func (w *Watcher) emitError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	select {
	case w.errors <- err:
	default:
	}
}

// Events returns the channel of debounced path batches.
func (w *Watcher) Events() <-chan []string {
	return w.events
}

// Errors returns the channel of watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Stop stops the watcher and releases resources. Safe to call more
// than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	err := w.fsw.Close()
	close(w.events)
	close(w.errors)
	return err
}
