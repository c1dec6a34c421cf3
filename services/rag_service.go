package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/itish2003/docchat/models"
)

// ErrEmptyQuestion is returned when the question is blank after sanitising.
var ErrEmptyQuestion = errors.New("no question in the request")

// ChatService answers questions from the indexed documentation and manages
// the documents behind it.
type ChatService interface {
	Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
	IngestDocument(ctx context.Context, req models.IngestDocumentRequest) (int, error)
	ListDocuments(ctx context.Context) (*models.ListDocumentsResponse, error)
	CountChunks(ctx context.Context) (int, error)
}

// chatServiceImpl holds the dependencies it needs to do its job
type chatServiceImpl struct {
	store     DocumentStore
	embedder  Embedder
	generator Generator
	indexer   *IndexingService
	topK      int
	logger    *slog.Logger
}

// NewChatService creates a new chat service instance.
func NewChatService(store DocumentStore, embedder Embedder, generator Generator, indexer *IndexingService, topK int, logger *slog.Logger) ChatService {
	if topK <= 0 {
		topK = 4
	}
	return &chatServiceImpl{
		store:     store,
		embedder:  embedder,
		generator: generator,
		indexer:   indexer,
		topK:      topK,
		logger:    logger,
	}
}

// Chat runs the retrieval pipeline: condense the follow-up question, embed
// it, retrieve the closest chunks and ask the model to answer from them.
func (r *chatServiceImpl) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	question := SanitizeQuestion(req.Question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	start := time.Now()
	history := FormatHistory(req.History)

	searchQuery := question
	if len(req.History) > 0 {
		standalone, err := r.generator.Generate(ctx, "", BuildCondensePrompt(history, question))
		if err != nil {
			return nil, fmt.Errorf("condense question: %w", err)
		}
		if standalone = SanitizeQuestion(standalone); standalone != "" {
			searchQuery = standalone
		}
		r.logger.Debug("condensed follow-up question", "question", question, "standalone", searchQuery)
	}

	docs, err := r.retrieveDocuments(ctx, searchQuery)
	if err != nil {
		return nil, err
	}

	answer, err := r.generator.Generate(ctx, SystemPrompt, BuildAnswerPrompt(docs, history, question))
	if err != nil {
		return nil, fmt.Errorf("could not generate answer: %w", err)
	}

	r.logger.Info("answered question",
		"model", r.generator.Model(),
		"history_len", len(req.History),
		"sources", len(docs),
		"duration_ms", time.Since(start).Milliseconds())

	return &models.ChatResponse{
		Text:            answer,
		SourceDocuments: docs,
	}, nil
}

// retrieveDocuments embeds query and returns the closest chunks.
func (r *chatServiceImpl) retrieveDocuments(ctx context.Context, query string) ([]models.SourceDocument, error) {
	queryEmbedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query text: %w", err)
	}

	docs, err := r.store.Query(ctx, queryEmbedding, r.topK)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("retrieved documents", "count", len(docs))
	return docs, nil
}

// IngestDocument indexes a single text document sent over the API.
func (r *chatServiceImpl) IngestDocument(ctx context.Context, req models.IngestDocumentRequest) (int, error) {
	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = "user_input/" + uuid.New().String()
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = ExtractTitle(req.Text, source)
	}

	if err := r.store.DeleteBySource(ctx, source); err != nil {
		return 0, err
	}
	n, err := r.indexer.IndexText(ctx, req.Text, source, title, hashText(req.Text))
	if err != nil {
		return 0, fmt.Errorf("could not ingest document %s: %w", source, err)
	}
	r.logger.Info("ingested document", "source", source, "chunks", n)
	return n, nil
}

// ListDocuments returns every chunk in the index.
func (r *chatServiceImpl) ListDocuments(ctx context.Context) (*models.ListDocumentsResponse, error) {
	docs, err := r.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return &models.ListDocumentsResponse{
		Count:     len(docs),
		Documents: docs,
	}, nil
}

// CountChunks counts all the document chunks in the index.
func (r *chatServiceImpl) CountChunks(ctx context.Context) (int, error) {
	return r.store.Count(ctx)
}
