package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"advisor/internal/domain"
)

func scoredDoc(title, text, source string) domain.ScoredDocument {
	return domain.ScoredDocument{
		Document: domain.Document{
			Text:     text,
			Metadata: map[string]string{"title": title, "source": source},
		},
	}
}

func TestFormatDocs(t *testing.T) {
	docs := []domain.ScoredDocument{
		scoredDoc("Serum", "serum content", "https://x/serum"),
		scoredDoc("Zinc", "zinc content", "https://x/zinc"),
	}

	out := formatDocs(docs)

	blocks := strings.Split(out, "\n\n---\n\n")
	require.Len(t, blocks, 2)
	assert.Equal(t,
		"Product Title: Serum\nProduct Content: serum content\nProduct Page Link (source): https://x/serum",
		blocks[0])
	assert.Equal(t,
		"Product Title: Zinc\nProduct Content: zinc content\nProduct Page Link (source): https://x/zinc",
		blocks[1])

	// Deterministic for a fixed input.
	assert.Equal(t, out, formatDocs(docs))
}

func TestFormatDocs_Empty(t *testing.T) {
	assert.Equal(t, "", formatDocs(nil))
}

func TestAnswerMessages_EmptyContextStillInstructsToDecline(t *testing.T) {
	messages := answerMessages("What about rocket fuel?", nil)
	require.Len(t, messages, 2)

	system := messages[0].Content
	assert.Contains(t, system, "based *only* on the provided context")
	assert.Contains(t, system, "politely state that you don't have information")
	// The context block exists and is empty: nothing to recommend from.
	assert.True(t, strings.HasSuffix(system, "Context:\n"))

	assert.Equal(t, domain.RoleUser, messages[1].Role)
	assert.Equal(t, "What about rocket fuel?", messages[1].Content)
}

func TestCondenseMessages_HistoryOrder(t *testing.T) {
	history := []domain.Turn{
		{Role: domain.RoleUser, Content: "older"},
		{Role: domain.RoleAssistant, Content: "reply"},
		{Role: domain.RoleUser, Content: "newer"},
		{Role: domain.RoleAssistant, Content: "reply2"},
	}

	messages := condenseMessages(history, "and it?")
	require.Len(t, messages, 6)

	assert.Equal(t, domain.RoleSystem, messages[0].Role)
	assert.Contains(t, messages[0].Content, "original language")
	assert.Equal(t, "older", messages[1].Content)
	assert.Equal(t, "reply2", messages[4].Content)
	assert.Equal(t, "and it?", messages[5].Content)
}

func TestCondenseMessages_EmptyHistory(t *testing.T) {
	messages := condenseMessages(nil, "plain question")
	require.Len(t, messages, 2)
	assert.Equal(t, "plain question", messages[1].Content)
}
