package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/itish2003/docchat/models"
)

const (
	chunkSize    = 1000
	chunkOverlap = 100
)

// IndexingService handles scanning, chunking, and embedding files.
type IndexingService struct {
	store    DocumentStore
	embedder Embedder
	text     textsplitter.TextSplitter
	markdown textsplitter.TextSplitter
	logger   *slog.Logger
}

// NewIndexingService creates a new indexing service.
func NewIndexingService(store DocumentStore, embedder Embedder, logger *slog.Logger) *IndexingService {
	return &IndexingService{
		store:    store,
		embedder: embedder,
		text: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
		markdown: textsplitter.NewMarkdownTextSplitter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
		logger: logger,
	}
}

// IndexReport summarises one directory scan.
type IndexReport struct {
	Indexed   int
	Unchanged int
	Removed   int
	Failed    int
}

// WatchDirectory re-indexes files under dirPath as they change, until ctx
// is cancelled.
func (s *IndexingService) WatchDirectory(ctx context.Context, dirPath string) error {
	dirPath = filepath.Clean(dirPath)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()

	err = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", dirPath, err)
	}
	s.logger.Info("watching directory", "dir", dirPath)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			s.handleEvent(ctx, watcher, event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)

		case <-ctx.Done():
			s.logger.Info("context cancelled, shutting down watcher")
			return nil
		}
	}
}

func (s *IndexingService) handleEvent(ctx context.Context, watcher *fsnotify.Watcher, event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := watcher.Add(event.Name); err != nil {
				s.logger.Warn("could not watch new directory", "dir", event.Name, "error", err)
			}
			return
		}
	}
	if !isSupportedFile(event.Name) {
		return
	}
	s.logger.Debug("watcher event", "event", event.String())

	// Editors often save through a temp file and a rename, so Create and
	// Write are handled the same way.
	switch {
	case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
		hash, err := calculateFileHash(event.Name)
		if err != nil {
			s.logger.Warn("could not hash file", "file", event.Name, "error", err)
			return
		}
		if err := s.store.DeleteBySource(ctx, event.Name); err != nil {
			s.logger.Error("failed to delete old chunks", "file", event.Name, "error", err)
			return
		}
		if _, err := s.IndexFile(ctx, event.Name, hash); err != nil {
			s.logger.Error("failed to index file", "file", event.Name, "error", err)
		}
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		s.logger.Info("file removed, dropping from index", "file", event.Name)
		if err := s.store.DeleteBySource(ctx, event.Name); err != nil {
			s.logger.Error("failed to delete chunks", "file", event.Name, "error", err)
		}
	}
}

// ScanAndIndexDirectory syncs the index with the files under dirPath: new
// and changed files are (re)indexed, unchanged ones skipped, and files that
// no longer exist are removed.
func (s *IndexingService) ScanAndIndexDirectory(ctx context.Context, dirPath string) (IndexReport, error) {
	var report IndexReport
	dirPath = filepath.Clean(dirPath)
	s.logger.Info("starting directory scan", "dir", dirPath)

	indexedFiles, err := s.currentIndexState(ctx)
	if err != nil {
		return report, fmt.Errorf("get current index state: %w", err)
	}
	s.logger.Info("files currently in the index", "count", len(indexedFiles))

	localFiles := make(map[string]bool)
	err = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !isSupportedFile(path) {
			return nil
		}

		localFiles[path] = true
		hash, err := calculateFileHash(path)
		if err != nil {
			s.logger.Warn("could not hash file", "file", path, "error", err)
			report.Failed++
			return nil
		}

		if indexedHash, ok := indexedFiles[path]; ok {
			if indexedHash == hash {
				report.Unchanged++
				return nil
			}
			s.logger.Info("file has changed, re-indexing", "file", path)
			if err := s.store.DeleteBySource(ctx, path); err != nil {
				s.logger.Error("failed to delete old version", "file", path, "error", err)
				report.Failed++
				return nil
			}
		}

		if _, err := s.IndexFile(ctx, path, hash); err != nil {
			s.logger.Error("failed to index file", "file", path, "error", err)
			report.Failed++
			return nil
		}
		report.Indexed++
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("walk %s: %w", dirPath, err)
	}

	for path := range indexedFiles {
		if localFiles[path] || !withinDir(path, dirPath) {
			continue
		}
		s.logger.Info("file deleted, removing from index", "file", path)
		if err := s.store.DeleteBySource(ctx, path); err != nil {
			s.logger.Error("failed to delete chunks", "file", path, "error", err)
			report.Failed++
			continue
		}
		report.Removed++
	}

	s.logger.Info("directory scan finished",
		"indexed", report.Indexed, "unchanged", report.Unchanged,
		"removed", report.Removed, "failed", report.Failed)
	return report, nil
}

// IndexFile extracts, chunks and stores one file. It returns the number of
// chunks written.
func (s *IndexingService) IndexFile(ctx context.Context, path, hash string) (int, error) {
	content, err := ExtractTextFromFile(path)
	if err != nil {
		return 0, err
	}
	return s.IndexText(ctx, content, path, ExtractTitle(content, path), hash)
}

// IndexText chunks text, embeds the chunks and stores them under source.
func (s *IndexingService) IndexText(ctx context.Context, text, source, title, hash string) (int, error) {
	if strings.TrimSpace(text) == "" {
		return 0, errEmptyDocument
	}

	splitter := s.text
	if isMarkdownFile(source) {
		splitter = s.markdown
	}
	chunks, err := splitter.SplitText(text)
	if err != nil {
		return 0, fmt.Errorf("split %s: %w", source, err)
	}
	s.logger.Debug("split document", "source", source, "chunks", len(chunks))
	if len(chunks) == 0 {
		return 0, errEmptyDocument
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("could not embed chunks of %s: %w", source, err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d chunks of %s", len(vectors), len(chunks), source)
	}

	docID := uuid.New().String()
	records := make([]Chunk, 0, len(chunks))
	for i, chunk := range chunks {
		records = append(records, Chunk{
			ID:        fmt.Sprintf("%s-chunk%d", docID, i),
			Text:      chunk,
			Embedding: vectors[i],
			Metadata: map[string]interface{}{
				models.MetaSource:   source,
				models.MetaTitle:    title,
				models.MetaFileHash: hash,
				models.MetaChunkNum: i,
			},
		})
	}
	if err := s.store.AddChunks(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// currentIndexState maps each indexed source to the hash it was indexed with.
func (s *IndexingService) currentIndexState(ctx context.Context) (map[string]string, error) {
	docs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	state := make(map[string]string)
	for _, doc := range docs {
		path, ok := doc.Metadata[models.MetaSource].(string)
		if !ok {
			continue
		}
		hash, ok := doc.Metadata[models.MetaFileHash].(string)
		if !ok {
			continue
		}
		if _, exists := state[path]; !exists {
			state[path] = hash
		}
	}
	return state, nil
}

var errEmptyDocument = errors.New("document has no text")

// withinDir reports whether path lies under dir. Sources that are not file
// paths, such as notes ingested over the API, are never under a directory.
func withinDir(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func calculateFileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
