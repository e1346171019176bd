package retriever

import (
	"context"
	"fmt"

	"advisor/internal/domain"
	"advisor/internal/port"
)

// DocumentStore resolves search hits back to full documents.
type DocumentStore interface {
	GetDoc(id string) (domain.Document, error)
}

// SemanticRetriever embeds the query and searches the vector store.
type SemanticRetriever struct {
	vectorStore port.VectorStore
	embedder    port.Embedder
	docStore    DocumentStore
}

func NewSemanticRetriever(
	vectorStore port.VectorStore,
	embedder port.Embedder,
	docStore DocumentStore,
) *SemanticRetriever {
	return &SemanticRetriever{
		vectorStore: vectorStore,
		embedder:    embedder,
		docStore:    docStore,
	}
}

// Search returns the top-k documents for the query. An embedding failure is a
// retrieval failure, never an empty result.
func (r *SemanticRetriever) Search(ctx context.Context, query string, k int) ([]domain.ScoredDocument, error) {
	if k < 1 {
		return nil, fmt.Errorf("k must be >= 1, got %d", k)
	}

	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedding returned empty result")
	}

	results, err := r.vectorStore.Search(embeddings[0], k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	docs := make([]domain.ScoredDocument, 0, len(results))
	for _, result := range results {
		doc, err := r.docStore.GetDoc(result.ID)
		if err != nil {
			return nil, fmt.Errorf("indexed vector %s has no document: %w", result.ID, err)
		}
		docs = append(docs, domain.ScoredDocument{
			Document: doc,
			Score:    result.Score,
		})
	}

	return docs, nil
}
