package retriever

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"advisor/internal/adapter/embedding"
	"advisor/internal/adapter/store"
	"advisor/internal/domain"
	"advisor/internal/port"
)

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("quota exceeded")
}
func (failingEmbedder) Dimension() int    { return 4 }
func (failingEmbedder) ModelName() string { return "failing" }

func setupIndex(t *testing.T) (*store.BoltStore, port.VectorStore, port.Embedder) {
	t.Helper()
	st, err := store.NewBoltStore(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	emb := embedding.NewMockEmbedder(8)
	vs := store.NewMemoryVectorStore(8)

	docs := []domain.Document{
		{ID: "d1", Ordinal: 0, Text: "vitamin c serum for skin", Metadata: map[string]string{"title": "Serum"}},
		{ID: "d2", Ordinal: 1, Text: "zinc tablets for immunity", Metadata: map[string]string{"title": "Zinc"}},
	}
	if err := st.PutDocs(docs); err != nil {
		t.Fatal(err)
	}
	for _, d := range docs {
		vecs, err := emb.Embed(context.Background(), []string{d.Text})
		if err != nil {
			t.Fatal(err)
		}
		if err := vs.Upsert([]port.VectorItem{{ID: d.ID, Ordinal: d.Ordinal, Vector: vecs[0]}}); err != nil {
			t.Fatal(err)
		}
	}
	return st, vs, emb
}

func TestSearch_ReturnsDocuments(t *testing.T) {
	st, vs, emb := setupIndex(t)
	r := NewSemanticRetriever(vs, emb, st)

	results, err := r.Search(context.Background(), "vitamin c serum for skin", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Document.ID != "d1" {
		t.Errorf("expected d1 first, got %s", results[0].Document.ID)
	}
	if results[0].Document.Metadata["title"] != "Serum" {
		t.Error("document metadata not resolved")
	}
}

func TestSearch_EmbeddingFailureIsRetrievalFailure(t *testing.T) {
	st, vs, _ := setupIndex(t)
	r := NewSemanticRetriever(vs, failingEmbedder{}, st)

	_, err := r.Search(context.Background(), "anything", 3)
	if err == nil {
		t.Fatal("expected error when embedder fails")
	}
}

func TestSearch_InvalidK(t *testing.T) {
	st, vs, emb := setupIndex(t)
	r := NewSemanticRetriever(vs, emb, st)

	if _, err := r.Search(context.Background(), "anything", 0); err == nil {
		t.Error("expected error for k=0")
	}
}
