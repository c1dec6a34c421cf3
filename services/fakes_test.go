package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/itish2003/docchat/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory DocumentStore. Query ignores the embedding and
// returns chunks in insertion order.
type memStore struct {
	mu       sync.Mutex
	chunks   []Chunk
	queries  [][]float32
	queryErr error
}

func (m *memStore) AddChunks(_ context.Context, chunks []Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = append(m.chunks, chunks...)
	return nil
}

func (m *memStore) Query(_ context.Context, embedding []float32, n int) ([]models.SourceDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, embedding)
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	var out []models.SourceDocument
	for _, c := range m.chunks {
		if len(out) == n {
			break
		}
		out = append(out, models.SourceDocument{PageContent: c.Text, Metadata: c.Metadata})
	}
	return out, nil
}

func (m *memStore) List(_ context.Context) ([]models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Document, 0, len(m.chunks))
	for _, c := range m.chunks {
		out = append(out, models.Document{ID: c.ID, Text: c.Text, Metadata: c.Metadata})
	}
	return out, nil
}

func (m *memStore) DeleteBySource(_ context.Context, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.chunks[:0]
	for _, c := range m.chunks {
		if c.Metadata[models.MetaSource] != source {
			kept = append(kept, c)
		}
	}
	m.chunks = kept
	return nil
}

func (m *memStore) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chunks), nil
}

func (m *memStore) sources() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int)
	for _, c := range m.chunks {
		src, _ := c.Metadata[models.MetaSource].(string)
		out[src]++
	}
	return out
}

// fakeEmbedder maps text to a vector of its length.
type fakeEmbedder struct {
	mu      sync.Mutex
	queries []string
	err     error
}

func (e *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queries = append(e.queries, text)
	if e.err != nil {
		return nil, e.err
	}
	return []float32{float32(len(text))}, nil
}

func (e *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

type generateCall struct {
	system string
	prompt string
}

// fakeGenerator returns canned replies in order; the last one repeats.
type fakeGenerator struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   []generateCall
}

func (g *fakeGenerator) Generate(_ context.Context, system, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, generateCall{system: system, prompt: prompt})
	if g.err != nil {
		return "", g.err
	}
	if len(g.replies) == 0 {
		return "", errors.New("no reply configured")
	}
	reply := g.replies[0]
	if len(g.replies) > 1 {
		g.replies = g.replies[1:]
	}
	return reply, nil
}

func (g *fakeGenerator) Model() string { return "fake-model" }
