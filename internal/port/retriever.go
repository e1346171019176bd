package port

import (
	"context"

	"advisor/internal/domain"
)

// Retriever defines the interface for searching indexed documents.
type Retriever interface {
	// Search returns the top-k documents for the query, best first.
	Search(ctx context.Context, query string, k int) ([]domain.ScoredDocument, error)
}
