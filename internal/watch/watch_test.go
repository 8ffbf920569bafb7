package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReportsAcceptedDocuments(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	found := make(chan string, 4)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, func(path string) { found <- path }) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.png"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("# notes"), 0o644))

	select {
	case path := <-found:
		assert.Equal(t, filepath.Join(w.Dir(), "notes.md"), path)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report notes.md")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestNewRejectsFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	_, err := New(path, nil)
	assert.Error(t, err)

	_, err = New(filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)
}

func TestWatcherWaitsForWritesToSettle(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	type seen struct {
		path string
		size int64
	}
	found := make(chan seen, 4)
	go func() {
		_ = w.Run(ctx, func(path string) {
			var size int64
			if info, err := os.Stat(path); err == nil {
				size = info.Size()
			}
			found <- seen{path: path, size: size}
		})
	}()

	path := filepath.Join(dir, "slow.txt")
	f, err := os.Create(path)
	require.NoError(t, err)
	time.Sleep(DefaultQuiet / 2)
	_, err = f.WriteString("The submission deadline is March 1.")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	select {
	case got := <-found:
		assert.Equal(t, filepath.Join(w.Dir(), "slow.txt"), got.path)
		assert.NotZero(t, got.size, "reported before the content was written")
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report slow.txt")
	}

	select {
	case got := <-found:
		t.Fatalf("reported %s twice", got.path)
	case <-time.After(2 * DefaultQuiet):
	}
}

func TestWatcherIgnoresWritesToExistingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "existing.md")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	w, err := New(dir, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	found := make(chan string, 1)
	go func() { _ = w.Run(ctx, func(path string) { found <- path }) }()

	require.NoError(t, os.WriteFile(path, []byte("new content"), 0o644))
	select {
	case got := <-found:
		t.Fatalf("unexpected report for %s", got)
	case <-time.After(3 * DefaultQuiet):
	}
}
