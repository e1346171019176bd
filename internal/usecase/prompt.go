package usecase

import (
	"fmt"
	"strings"

	"advisor/internal/domain"
)

const condenseInstruction = "Given the conversation so far, rephrase the user's latest question " +
	"as a standalone question that can be understood without the conversation. " +
	"Resolve pronouns and references using the conversation. " +
	"Keep the question in its original language. " +
	"Return only the rephrased question, nothing else."

const answerInstruction = "You are a helpful and friendly AI assistant for the 'Safir Servat' " +
	"online supplement store. " +
	"Answer the user's question based *only* on the provided context. " +
	"If the context is insufficient, politely state that you don't have information " +
	"on that specific topic. " +
	"Always provide the product name and a link to its page when recommending a product. " +
	"Answer in Persian.\n\nContext:\n%s"

const docSeparator = "\n\n---\n\n"

// condenseMessages builds the prompt that rewrites a follow-up question into
// a standalone one. The same message sequence is used even when history is
// empty; the model passes the question through in that case.
func condenseMessages(history []domain.Turn, question string) []domain.ChatMessage {
	messages := make([]domain.ChatMessage, 0, len(history)+2)
	messages = append(messages, domain.ChatMessage{
		Role:    domain.RoleSystem,
		Content: condenseInstruction,
	})
	for _, turn := range history {
		messages = append(messages, domain.ChatMessage{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}
	messages = append(messages, domain.ChatMessage{
		Role:    domain.RoleUser,
		Content: question,
	})
	return messages
}

// answerMessages builds the answering prompt: the retrieved context in the
// system message and the user's original question, not the condensed one.
// The condensed query exists only for retrieval.
func answerMessages(question string, docs []domain.ScoredDocument) []domain.ChatMessage {
	return []domain.ChatMessage{
		{
			Role:    domain.RoleSystem,
			Content: fmt.Sprintf(answerInstruction, formatDocs(docs)),
		},
		{
			Role:    domain.RoleUser,
			Content: question,
		},
	}
}

// formatDocs renders retrieved documents as labeled blocks in rank order,
// separated by a visible divider.
func formatDocs(docs []domain.ScoredDocument) string {
	blocks := make([]string, 0, len(docs))
	for _, d := range docs {
		blocks = append(blocks, fmt.Sprintf(
			"Product Title: %s\nProduct Content: %s\nProduct Page Link (source): %s",
			d.Document.Title(),
			d.Document.Text,
			d.Document.Source(),
		))
	}
	return strings.Join(blocks, docSeparator)
}
