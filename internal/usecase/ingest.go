package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"

	"advisor/internal/adapter/catalog"
	"advisor/internal/adapter/store"
	"advisor/internal/domain"
	"advisor/internal/port"
)

// IngestService builds the vector index from a product catalog.
type IngestService struct {
	loader     *catalog.Loader
	normalizer *catalog.Normalizer
	embedder   port.Embedder
	store      *store.BoltStore
	vectors    port.VectorStore
	batchSize  int
	logger     *slog.Logger
	progress   bool
}

type IngestOptions struct {
	BatchSize int
	Progress  bool // render a progress bar during embedding
}

func NewIngestService(
	loader *catalog.Loader,
	normalizer *catalog.Normalizer,
	embedder port.Embedder,
	st *store.BoltStore,
	vectors port.VectorStore,
	logger *slog.Logger,
	opts IngestOptions,
) *IngestService {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestService{
		loader:     loader,
		normalizer: normalizer,
		embedder:   embedder,
		store:      st,
		vectors:    vectors,
		batchSize:  opts.BatchSize,
		logger:     logger,
		progress:   opts.Progress,
	}
}

// Build normalizes all catalog records, embeds them and writes the index.
// Any embedding failure fails the whole build; the index metadata is written
// last, so a failed build never reads as a usable index.
func (s *IngestService) Build(ctx context.Context) (domain.IndexStats, error) {
	records, err := s.loader.Load()
	if err != nil {
		return domain.IndexStats{}, newError(ErrorIngestion, "", err)
	}

	var docs []domain.Document
	skipped := 0
	for _, record := range records {
		doc, ok := s.normalizer.Normalize(record)
		if !ok {
			skipped++
			s.logger.Warn("skipping product with empty content", "title", record.Title)
			continue
		}
		doc.Ordinal = len(docs)
		docs = append(docs, doc)
	}

	if len(docs) == 0 {
		return domain.IndexStats{}, newError(ErrorIngestion, "",
			fmt.Errorf("catalog is empty after normalization (%d records skipped)", skipped))
	}

	s.logger.Info("catalog normalized", "documents", len(docs), "skipped", skipped)

	if err := s.store.Reset(); err != nil {
		return domain.IndexStats{}, newError(ErrorIngestion, "", err)
	}

	var bar *progressbar.ProgressBar
	if s.progress {
		bar = progressbar.Default(int64(len(docs)), "embedding")
	}

	for start := 0; start < len(docs); start += s.batchSize {
		end := start + s.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]

		texts := make([]string, len(batch))
		for i, d := range batch {
			texts[i] = d.Text
		}

		vectors, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return domain.IndexStats{}, newError(ErrorIngestion, "",
				fmt.Errorf("embedding batch %d-%d: %w", start, end, err))
		}
		if len(vectors) != len(batch) {
			return domain.IndexStats{}, newError(ErrorIngestion, "",
				fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(batch)))
		}

		items := make([]port.VectorItem, len(batch))
		for i, d := range batch {
			items[i] = port.VectorItem{ID: d.ID, Ordinal: d.Ordinal, Vector: vectors[i]}
		}
		if err := s.vectors.Upsert(items); err != nil {
			return domain.IndexStats{}, newError(ErrorIngestion, "", err)
		}
		if err := s.store.PutDocs(batch); err != nil {
			return domain.IndexStats{}, newError(ErrorIngestion, "", err)
		}

		if bar != nil {
			_ = bar.Add(len(batch))
		}
	}

	meta := &store.IndexMeta{
		Version:   store.CurrentSchemaVersion,
		Model:     s.embedder.ModelName(),
		Dimension: s.embedder.Dimension(),
		Documents: len(docs),
		BuiltAt:   time.Now().UTC(),
	}
	if err := s.store.SetIndexMeta(meta); err != nil {
		return domain.IndexStats{}, newError(ErrorIngestion, "", err)
	}

	return domain.IndexStats{
		Documents: len(docs),
		Dimension: s.embedder.Dimension(),
		Model:     s.embedder.ModelName(),
	}, nil
}
