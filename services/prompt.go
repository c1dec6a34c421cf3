package services

import (
	"fmt"
	"strings"

	"github.com/itish2003/docchat/models"
)

// SystemPrompt defines the core instructions for answering questions.
const SystemPrompt = `You are a helpful AI assistant for the Soroban documentation. Use the provided pieces of context to answer the question at the end.
If you don't know the answer, just say you don't know. DO NOT try to make up an answer.
If the question is not related to the context, politely respond that you are tuned to only answer questions that are related to the context.
Answer in markdown. Put code in fenced code blocks.`

const condenseTemplate = `Given the following conversation and a follow up question, rephrase the follow up question to be a standalone question.

Chat History:
%s
Follow Up Input: %s
Standalone question:`

const answerTemplate = `%s

Chat History:
%s

Question: %s
Helpful answer in markdown:`

// SanitizeQuestion trims q and replaces newlines with spaces.
func SanitizeQuestion(q string) string {
	return strings.ReplaceAll(strings.TrimSpace(q), "\n", " ")
}

// FormatHistory renders history as alternating "Human:" / "Assistant:" lines
// joined by newlines.
func FormatHistory(history []models.HistoryPair) string {
	lines := make([]string, 0, 2*len(history))
	for _, pair := range history {
		lines = append(lines, "Human: "+pair[0], "Assistant: "+pair[1])
	}
	return strings.Join(lines, "\n")
}

// BuildCondensePrompt asks the model to turn a follow-up into a standalone
// question.
func BuildCondensePrompt(history, question string) string {
	return fmt.Sprintf(condenseTemplate, history, question)
}

// BuildAnswerPrompt assembles the retrieved passages, the conversation and
// the question into the final prompt.
func BuildAnswerPrompt(docs []models.SourceDocument, history, question string) string {
	return fmt.Sprintf(answerTemplate, formatContext(docs), history, question)
}

func formatContext(docs []models.SourceDocument) string {
	if len(docs) == 0 {
		return "Context: (no matching documentation found)"
	}
	var sb strings.Builder
	sb.WriteString("Context:")
	for i, doc := range docs {
		fmt.Fprintf(&sb, "\n\n[%d]", i+1)
		if title := doc.Title(); title != "" {
			sb.WriteString(" " + title)
		}
		if source := doc.Source(); source != "" {
			sb.WriteString(" (" + source + ")")
		}
		sb.WriteString("\n")
		sb.WriteString(doc.PageContent)
	}
	return sb.String()
}
