package chat

// Store holds the messages and history of a single conversation.
//
// A Store is not safe for concurrent use. It is owned by exactly one
// Orchestrator, which serialises every mutation.
type Store struct {
	greeting string
	state    ConversationState
}

// NewStore returns a Store seeded with one assistant greeting and no history.
func NewStore(greeting string) *Store {
	s := &Store{greeting: greeting}
	s.Reset()
	return s
}

// Append adds m to the end of the conversation.
func (s *Store) Append(m Message) {
	s.state.Messages = append(s.state.Messages, m)
}

// AppendHistory records one completed question/answer cycle.
func (s *Store) AppendHistory(question, answer string) {
	s.state.History = append(s.state.History, HistoryEntry{Question: question, Answer: answer})
}

// Reset discards every message and history entry and restores the seeded
// greeting.
func (s *Store) Reset() {
	s.state = ConversationState{
		Messages: []Message{{Type: APIMessage, Text: s.greeting}},
		History:  []HistoryEntry{},
	}
}

// History returns a copy of the current history.
func (s *Store) History() []HistoryEntry {
	out := make([]HistoryEntry, len(s.state.History))
	copy(out, s.state.History)
	return out
}

// Snapshot returns a copy of the state. Later appends to the Store are not
// visible through the returned slices.
func (s *Store) Snapshot() ConversationState {
	msgs := make([]Message, len(s.state.Messages))
	copy(msgs, s.state.Messages)
	return ConversationState{
		Messages: msgs,
		History:  s.History(),
	}
}

// DedupeSources keeps the first document seen for each source identifier,
// in input order. The input slice is not modified.
func DedupeSources(docs []SourceDocument) []SourceDocument {
	if docs == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(docs))
	out := make([]SourceDocument, 0, len(docs))
	for _, d := range docs {
		if _, ok := seen[d.Source]; ok {
			continue
		}
		seen[d.Source] = struct{}{}
		out = append(out, d)
	}
	return out
}
