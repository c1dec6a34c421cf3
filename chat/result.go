package chat

import "context"

// Request is what a submission sends to the retrieval pipeline.
type Request struct {
	Question string
	History  []HistoryEntry
}

// Result is the outcome reported by a Pipeline that answered the request.
// It is either a Success or a Failure.
type Result interface {
	isResult()
}

// Success carries the generated answer and its citations.
type Success struct {
	Text    string
	Sources []SourceDocument
}

// Failure carries the message the pipeline reported instead of an answer.
type Failure struct {
	Message string
}

func (Success) isResult() {}
func (Failure) isResult() {}

// Pipeline answers questions. A non-nil error means the request never
// completed (network failure, unreadable response); pipeline-reported
// problems come back as a Failure.
type Pipeline interface {
	Ask(ctx context.Context, req Request) (Result, error)
}
