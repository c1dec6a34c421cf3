package models

// Metadata keys written for every indexed chunk.
const (
	MetaSource   = "source"
	MetaTitle    = "title"
	MetaFileHash = "file_hash"
	MetaChunkNum = "chunk_num"
)

// Document represents a single chunk stored in the vector index.
type Document struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ListDocumentsResponse is the structure for the response of the GET /documents endpoint.
type ListDocumentsResponse struct {
	Count     int        `json:"count"`
	Documents []Document `json:"documents"`
}

// SourceDocument is a retrieved chunk cited as the origin of an answer.
type SourceDocument struct {
	PageContent string                 `json:"pageContent,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// Source returns the source identifier of the document, or "" if absent.
func (d SourceDocument) Source() string {
	return metaString(d.Metadata, MetaSource)
}

// Title returns the display title of the document, or "" if absent.
func (d SourceDocument) Title() string {
	return metaString(d.Metadata, MetaTitle)
}

func metaString(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
