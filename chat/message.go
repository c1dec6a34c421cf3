package chat

import "github.com/itish2003/docchat/models"

// MessageType distinguishes who authored a Message.
type MessageType string

const (
	UserMessage MessageType = "userMessage"
	APIMessage  MessageType = "apiMessage"
)

// Message is one entry in the conversation. Messages are never modified after
// they are appended to a Store.
type Message struct {
	Type            MessageType
	Text            string
	SourceDocuments []SourceDocument
}

// SourceDocument is a citation attached to an assistant answer.
type SourceDocument struct {
	Source   string
	Title    string
	Metadata map[string]any
}

// HistoryEntry is one completed question/answer cycle.
type HistoryEntry struct {
	Question string
	Answer   string
}

// ConversationState is a point-in-time view of a Store.
type ConversationState struct {
	Messages []Message
	History  []HistoryEntry
}

func sourceFromWire(doc models.SourceDocument) SourceDocument {
	return SourceDocument{
		Source:   doc.Source(),
		Title:    doc.Title(),
		Metadata: doc.Metadata,
	}
}

func historyToWire(history []HistoryEntry) []models.HistoryPair {
	pairs := make([]models.HistoryPair, 0, len(history))
	for _, h := range history {
		pairs = append(pairs, models.HistoryPair{h.Question, h.Answer})
	}
	return pairs
}
