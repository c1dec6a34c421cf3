package models

// HistoryPair is one completed (question, answer) exchange. It travels on the
// wire as a two-element JSON array.
type HistoryPair [2]string

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Question string        `json:"question"`
	History  []HistoryPair `json:"history"`
}

// IngestDocumentRequest is the body of POST /api/v1/documents.
type IngestDocumentRequest struct {
	Text   string `json:"text" binding:"required"`
	Source string `json:"source,omitempty"`
	Title  string `json:"title,omitempty"`
}
