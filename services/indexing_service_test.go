package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/itish2003/docchat/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScanAndIndexDirectory(t *testing.T) {
	dir := t.TempDir()
	intro := filepath.Join(dir, "intro.md")
	rpc := filepath.Join(dir, "guides", "rpc.txt")
	writeFile(t, intro, "# Introduction\n\nSoroban is a smart contracts platform.")
	writeFile(t, rpc, "Soroban-RPC exposes contract state over JSON-RPC.")
	writeFile(t, filepath.Join(dir, "image.png"), "not indexed")

	store := &memStore{}
	svc := NewIndexingService(store, &fakeEmbedder{}, discardLogger())
	ctx := context.Background()

	report, err := svc.ScanAndIndexDirectory(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, IndexReport{Indexed: 2}, report)

	sources := store.sources()
	assert.Contains(t, sources, intro)
	assert.Contains(t, sources, rpc)
	assert.Len(t, sources, 2)

	docs, err := store.List(ctx)
	require.NoError(t, err)
	for _, d := range docs {
		if d.Metadata[models.MetaSource] == intro {
			assert.Equal(t, "Introduction", d.Metadata[models.MetaTitle])
		}
		if d.Metadata[models.MetaSource] == rpc {
			assert.Equal(t, "rpc", d.Metadata[models.MetaTitle])
		}
		assert.NotEmpty(t, d.Metadata[models.MetaFileHash])
	}

	// Nothing changed.
	report, err = svc.ScanAndIndexDirectory(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, IndexReport{Unchanged: 2}, report)

	// One file changes, one disappears.
	writeFile(t, intro, "# Introduction\n\nSoroban contracts are written in Rust.")
	require.NoError(t, os.Remove(rpc))

	report, err = svc.ScanAndIndexDirectory(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, IndexReport{Indexed: 1, Removed: 1}, report)

	sources = store.sources()
	assert.Contains(t, sources, intro)
	assert.NotContains(t, sources, rpc)

	docs, err = store.List(ctx)
	require.NoError(t, err)
	var texts []string
	for _, d := range docs {
		texts = append(texts, d.Text)
	}
	joined := strings.Join(texts, "\n")
	assert.Contains(t, joined, "Rust")
	assert.NotContains(t, joined, "smart contracts platform")
}

func TestScanKeepsDocumentsOutsideDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.md"), "# A\n\ntext")

	store := &memStore{}
	svc := NewIndexingService(store, &fakeEmbedder{}, discardLogger())
	ctx := context.Background()

	_, err := svc.IndexText(ctx, "a note", "user_input/123", "Note", hashText("a note"))
	require.NoError(t, err)

	report, err := svc.ScanAndIndexDirectory(ctx, dir)
	require.NoError(t, err)
	assert.Zero(t, report.Removed)
	assert.Contains(t, store.sources(), "user_input/123")
}

func TestIndexTextChunksLongDocuments(t *testing.T) {
	store := &memStore{}
	svc := NewIndexingService(store, &fakeEmbedder{}, discardLogger())

	long := strings.Repeat("Soroban stores contract data in ledger entries. ", 100)
	n, err := svc.IndexText(context.Background(), long, "long.txt", "Long", "h")
	require.NoError(t, err)
	assert.Greater(t, n, 1)

	docs, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, n)
	for i, d := range docs {
		assert.LessOrEqual(t, len(d.Text), chunkSize)
		assert.Equal(t, i, d.Metadata[models.MetaChunkNum])
	}
}

func TestIndexTextRejectsEmpty(t *testing.T) {
	svc := NewIndexingService(&memStore{}, &fakeEmbedder{}, discardLogger())
	_, err := svc.IndexText(context.Background(), " \n ", "empty.md", "Empty", "h")
	assert.ErrorIs(t, err, errEmptyDocument)
}

func TestWatchDirectoryIndexesNewFiles(t *testing.T) {
	dir := t.TempDir()
	store := &memStore{}
	svc := NewIndexingService(store, &fakeEmbedder{}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.WatchDirectory(ctx, dir) }()

	path := filepath.Join(dir, "events.md")
	require.Eventually(t, func() bool {
		// Rewrite until the watcher has picked the directory up.
		_ = os.WriteFile(path, []byte("# Events\n\nContracts can emit events."), 0o644)
		return store.sources()[path] > 0
	}, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool {
		return store.sources()[path] == 0
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestExtractTitle(t *testing.T) {
	assert.Equal(t, "Getting Started", ExtractTitle("intro\n# Getting Started\n## Sub", "x.md"))
	assert.Equal(t, "rpc", ExtractTitle("no heading here", "/docs/rpc.md"))
	assert.Equal(t, "notes", ExtractTitle("#  \n", "notes.txt"))
}

func TestWithinDir(t *testing.T) {
	assert.True(t, withinDir("docs/a.md", "docs"))
	assert.True(t, withinDir("docs/sub/a.md", "docs"))
	assert.False(t, withinDir("docs2/a.md", "docs"))
	assert.False(t, withinDir("user_input/1", "docs"))
}

func TestExtractTextFromFileUnsupported(t *testing.T) {
	_, err := ExtractTextFromFile("archive.zip")
	assert.Error(t, err)
}
