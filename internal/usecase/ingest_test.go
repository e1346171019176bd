package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"advisor/internal/adapter/catalog"
	"advisor/internal/adapter/embedding"
	"advisor/internal/adapter/store"
	"advisor/internal/port"
)

type brokenEmbedder struct{}

func (brokenEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("embedding service unavailable")
}
func (brokenEmbedder) Dimension() int    { return 8 }
func (brokenEmbedder) ModelName() string { return "broken" }

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "products.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newIngestService(t *testing.T, catalogPath string, embedder port.Embedder) (*IngestService, *store.BoltStore, port.VectorStore) {
	t.Helper()
	st, err := store.NewBoltStore(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	vs := store.NewMemoryVectorStore(embedder.Dimension())
	svc := NewIngestService(
		catalog.NewLoader(catalogPath),
		catalog.NewNormalizer(),
		embedder,
		st, vs, nil,
		IngestOptions{BatchSize: 2},
	)
	return svc, st, vs
}

func TestBuild_SkipsEmptyRecords(t *testing.T) {
	path := writeCatalog(t, `[
		{"title": "Vitamin C Serum", "description": "Brightens skin", "page_url": "https://x/serum"},
		{"title": "", "description": "", "benefits": [], "side_effects": []}
	]`)
	svc, st, vs := newIngestService(t, path, embedding.NewMockEmbedder(8))

	stats, err := svc.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Documents)

	count, err := vs.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	docs, err := st.ListDocs()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Vitamin C Serum", docs[0].Metadata["title"])
}

func TestBuild_EmbeddingFailureFailsWholeBuild(t *testing.T) {
	path := writeCatalog(t, `[
		{"title": "A", "description": "a"},
		{"title": "B", "description": "b"},
		{"title": "C", "description": "c"}
	]`)
	svc, st, _ := newIngestService(t, path, brokenEmbedder{})

	_, err := svc.Build(context.Background())
	require.Error(t, err)

	var uerr *Error
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, ErrorIngestion, uerr.Code)

	// No partial index: the metadata is never written on failure.
	meta, err := st.GetIndexMeta()
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestBuild_AllRecordsEmptyIsAnError(t *testing.T) {
	path := writeCatalog(t, `[{"title": "", "description": ""}]`)
	svc, _, _ := newIngestService(t, path, embedding.NewMockEmbedder(8))

	_, err := svc.Build(context.Background())
	require.Error(t, err)
}

func TestBuild_MissingCatalogIsAnError(t *testing.T) {
	svc, _, _ := newIngestService(t, filepath.Join(t.TempDir(), "missing.json"), embedding.NewMockEmbedder(8))

	_, err := svc.Build(context.Background())
	require.Error(t, err)

	var uerr *Error
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, ErrorIngestion, uerr.Code)
}

func TestBuild_OrdinalsFollowCatalogOrder(t *testing.T) {
	path := writeCatalog(t, `[
		{"title": "First", "description": "one"},
		{"title": "Second", "description": "two"},
		{"title": "Third", "description": "three"}
	]`)
	svc, st, _ := newIngestService(t, path, embedding.NewMockEmbedder(8))

	_, err := svc.Build(context.Background())
	require.NoError(t, err)

	docs, err := st.ListDocs()
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "First", docs[0].Metadata["title"])
	assert.Equal(t, "Second", docs[1].Metadata["title"])
	assert.Equal(t, "Third", docs[2].Metadata["title"])

	meta, err := st.GetIndexMeta()
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, 3, meta.Documents)
	assert.Equal(t, "mock", meta.Model)
}
