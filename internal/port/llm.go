package port

import (
	"context"

	"advisor/internal/domain"
)

// ChatModel represents a chat-completion language model.
type ChatModel interface {
	// Chat sends an ordered list of role-tagged messages and returns the
	// generated text.
	Chat(ctx context.Context, messages []domain.ChatMessage) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
