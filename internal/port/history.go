package port

import (
	"context"

	"advisor/internal/domain"
)

// HistoryStore persists per-session conversation turns with a TTL.
type HistoryStore interface {
	// Get returns the ordered turn history for a session. A session that
	// does not exist or has expired yields an empty slice, not an error.
	// A store failure is an error: callers must be able to distinguish
	// "no prior history" from "history unavailable".
	Get(ctx context.Context, sessionID string) ([]domain.Turn, error)

	// AppendExchange atomically appends the user question and assistant
	// answer, in that order, creating the session if absent and resetting
	// its TTL to a full window from now.
	AppendExchange(ctx context.Context, sessionID, question, answer string) error
}
