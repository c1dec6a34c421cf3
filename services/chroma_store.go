package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"

	"github.com/itish2003/docchat/models"
)

// Chunk is a piece of a document ready to be stored.
type Chunk struct {
	ID        string
	Text      string
	Embedding []float32
	Metadata  map[string]interface{}
}

// DocumentStore is the vector index holding document chunks.
type DocumentStore interface {
	AddChunks(ctx context.Context, chunks []Chunk) error
	Query(ctx context.Context, embedding []float32, nResults int) ([]models.SourceDocument, error)
	List(ctx context.Context) ([]models.Document, error)
	DeleteBySource(ctx context.Context, source string) error
	Count(ctx context.Context) (int, error)
}

// ChromaStore is a DocumentStore backed by a Chroma collection.
type ChromaStore struct {
	collection chromago.Collection
	logger     *slog.Logger
}

var _ DocumentStore = (*ChromaStore)(nil)

// NewChromaStore wraps an existing collection.
func NewChromaStore(collection chromago.Collection, logger *slog.Logger) *ChromaStore {
	return &ChromaStore{collection: collection, logger: logger}
}

// OpenChromaStore connects to the Chroma server at url and gets or creates
// the named collection. The returned close function releases the client.
func OpenChromaStore(ctx context.Context, url, collectionName string, logger *slog.Logger) (*ChromaStore, func() error, error) {
	client, err := chromago.NewHTTPClient(chromago.WithBaseURL(url))
	if err != nil {
		return nil, nil, fmt.Errorf("create chroma client: %w", err)
	}

	logger.Info("getting or creating collection", "collection", collectionName, "url", url)
	collection, err := client.GetOrCreateCollection(
		ctx,
		collectionName,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("description", "documentation chat collection"),
				chromago.NewStringAttribute("created_by", "docchat"),
			),
		),
	)
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("get or create collection %q: %w", collectionName, err)
	}

	return NewChromaStore(collection, logger), client.Close, nil
}

// AddChunks stores chunks together with their embeddings and metadata.
func (s *ChromaStore) AddChunks(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	ids := make([]chromago.DocumentID, 0, len(chunks))
	texts := make([]string, 0, len(chunks))
	embs := make([]embeddings.Embedding, 0, len(chunks))
	metas := make([]chromago.DocumentMetadata, 0, len(chunks))
	for _, c := range chunks {
		ids = append(ids, chromago.DocumentID(c.ID))
		texts = append(texts, c.Text)
		embs = append(embs, embeddings.NewEmbeddingFromFloat32(c.Embedding))
		metas = append(metas, toDocumentMetadata(c.Metadata))
	}

	err := s.collection.Add(ctx,
		chromago.WithIDs(ids...),
		chromago.WithTexts(texts...),
		chromago.WithEmbeddings(embs...),
		chromago.WithMetadatas(metas...),
	)
	if err != nil {
		return fmt.Errorf("failed to add %d chunks to chromadb: %w", len(chunks), err)
	}
	return nil
}

// Query returns the nResults chunks closest to embedding, nearest first.
func (s *ChromaStore) Query(ctx context.Context, embedding []float32, nResults int) ([]models.SourceDocument, error) {
	results, err := s.collection.Query(
		ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(embedding)),
		chromago.WithNResults(nResults),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chromadb: %w", err)
	}

	var documents []models.SourceDocument
	documentGroups := results.GetDocumentsGroups()
	metadataGroups := results.GetMetadatasGroups()
	if len(documentGroups) == 0 {
		return documents, nil
	}

	for i, doc := range documentGroups[0] {
		if doc.ContentString() == "" {
			continue
		}
		var meta map[string]interface{}
		if len(metadataGroups) > 0 && len(metadataGroups[0]) > i {
			meta = s.metadataToMap(metadataGroups[0][i])
		}
		documents = append(documents, models.SourceDocument{
			PageContent: doc.ContentString(),
			Metadata:    meta,
		})
	}
	return documents, nil
}

// List returns every chunk in the collection.
func (s *ChromaStore) List(ctx context.Context) ([]models.Document, error) {
	results, err := s.collection.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get documents from chromadb: %w", err)
	}

	ids := results.GetIDs()
	documents := results.GetDocuments()
	metadatas := results.GetMetadatas()

	out := make([]models.Document, 0, len(documents))
	for i := range documents {
		var meta map[string]interface{}
		if len(metadatas) > i {
			meta = s.metadataToMap(metadatas[i])
		}
		var id string
		if len(ids) > i {
			id = string(ids[i])
		}
		out = append(out, models.Document{
			ID:       id,
			Text:     documents[i].ContentString(),
			Metadata: meta,
		})
	}
	return out, nil
}

// DeleteBySource removes every chunk whose source metadata equals source.
func (s *ChromaStore) DeleteBySource(ctx context.Context, source string) error {
	where := chromago.EqString(models.MetaSource, source)
	if err := s.collection.Delete(ctx, chromago.WithWhereDelete(where)); err != nil {
		return fmt.Errorf("failed to delete chunks for %s: %w", source, err)
	}
	return nil
}

// Count returns the number of chunks in the collection.
func (s *ChromaStore) Count(ctx context.Context) (int, error) {
	count, err := s.collection.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count items in collection: %w", err)
	}
	return int(count), nil
}

// metadataToMap flattens Chroma metadata. DocumentMetadata has no public
// accessor for all values, so it goes through its JSON form.
func (s *ChromaStore) metadataToMap(metadata chromago.DocumentMetadata) map[string]interface{} {
	if metadata == nil {
		return nil
	}
	jsonBytes, err := json.Marshal(metadata)
	if err != nil {
		s.logger.Warn("could not marshal chunk metadata", "error", err)
		return map[string]interface{}{}
	}
	var m map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &m); err != nil {
		s.logger.Warn("could not unmarshal chunk metadata", "error", err)
		return map[string]interface{}{}
	}
	return m
}

func toDocumentMetadata(m map[string]interface{}) chromago.DocumentMetadata {
	attrs := make([]*chromago.MetaAttribute, 0, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, chromago.NewStringAttribute(k, val))
		case int:
			attrs = append(attrs, chromago.NewIntAttribute(k, int64(val)))
		case int64:
			attrs = append(attrs, chromago.NewIntAttribute(k, val))
		case float64:
			attrs = append(attrs, chromago.NewFloatAttribute(k, val))
		case bool:
			attrs = append(attrs, chromago.NewBoolAttribute(k, val))
		default:
			attrs = append(attrs, chromago.NewStringAttribute(k, fmt.Sprint(val)))
		}
	}
	return chromago.NewDocumentMetadata(attrs...)
}
