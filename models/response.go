package models

// ChatResponse is the body returned by POST /api/chat. Error is set instead
// of Text when the pipeline fails; clients treat its presence as failure
// regardless of the status code.
type ChatResponse struct {
	Text            string           `json:"text,omitempty"`
	SourceDocuments []SourceDocument `json:"sourceDocuments,omitempty"`
	Error           string           `json:"error,omitempty"`
}

type IngestDocumentResponse struct {
	Message string `json:"message"`
	Chunks  int    `json:"chunks"`
}
