package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_EmitsBatchForNewCorpusFile(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(50 * time.Millisecond)
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx, dir) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "batch1.jsonl")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"id":"en-001","language":"en","tokens":["dhaka"]}`+"\n"), 0o644))

	select {
	case batch := <-w.Events():
		require.Len(t, batch, 1)
		assert.Equal(t, path, batch[0])
	case <-time.After(3 * time.Second):
		t.Fatal("no event for new corpus file")
	}
}

func TestWatcher_IgnoresNonCorpusFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(50 * time.Millisecond)
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx, dir) }()

	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"),
		[]byte("not a corpus file"), 0o644))

	select {
	case batch := <-w.Events():
		t.Fatalf("unexpected event: %v", batch)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_DebouncesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(200 * time.Millisecond)
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx, dir) }()

	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "batch1.jsonl")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path,
			[]byte(`{"id":"en-001","language":"en"}`+"\n"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case batch := <-w.Events():
		assert.Equal(t, []string{path}, batch)
	case <-time.After(3 * time.Second):
		t.Fatal("no debounced event")
	}

	// The rapid writes collapse into a single batch.
	select {
	case batch := <-w.Events():
		t.Fatalf("unexpected second batch: %v", batch)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcher_StopDuringEmit(t *testing.T) {
	w, err := NewWatcher(10 * time.Millisecond)
	require.NoError(t, err)

	// A batch flushing while Stop closes the channels must not panic.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			w.emit([]string{"batch.jsonl"})
			w.emitError(context.Canceled)
		}
	}()

	time.Sleep(time.Millisecond)
	require.NoError(t, w.Stop())
	wg.Wait()
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := NewWatcher(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultDebounceWindow, w.window)

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}
