package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"advisor/config"
	"advisor/internal/adapter/catalog"
	"advisor/internal/adapter/embedding"
	"advisor/internal/adapter/store"
	"advisor/internal/usecase"
)

var ingestSource string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Build the vector index from product catalog files",
	Long: `Ingest reads product JSON files, normalizes each record into a plain-text
document, embeds the documents and writes the searchable index.

Records whose normalized text is empty are skipped and never indexed.
A failed build leaves no usable index behind.

Examples:
  advisor ingest                          # Use the source glob from config
  advisor ingest --source "data/*.json"   # Override the source glob`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "glob of product JSON files (default from config)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	secrets, err := config.LoadSecrets()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	source := cfg.Catalog.Source
	if ingestSource != "" {
		source = ingestSource
	}
	if !filepath.IsAbs(source) {
		source = filepath.Join(GetRootDir(), source)
	}

	dbPath := cfg.Catalog.DBPath
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(GetRootDir(), dbPath)
	}
	if err := config.EnsureDataDir(dbPath); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	embedder, err := embedding.NewClient(embedding.Options{
		APIKey:    secrets.APIKey,
		Model:     cfg.Embedding.Model,
		BaseURL:   secrets.BaseURL,
		Dimension: cfg.Embedding.Dimension,
		BatchSize: cfg.Embedding.BatchSize,
		Timeout:   cfg.Embedding.Timeout,
	})
	if err != nil {
		return err
	}

	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open index store: %w", err)
	}
	defer st.Close()

	vectors, err := store.NewBoltVectorStore(st.DB(), embedder.Dimension())
	if err != nil {
		return fmt.Errorf("failed to open vector store: %w", err)
	}

	svc := usecase.NewIngestService(
		catalog.NewLoader(source),
		catalog.NewNormalizer(),
		embedder,
		st, vectors,
		slog.Default(),
		usecase.IngestOptions{BatchSize: cfg.Embedding.BatchSize, Progress: true},
	)

	stats, err := svc.Build(cmd.Context())
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}

	fmt.Printf("Indexed %d documents (model %s, dimension %d)\n",
		stats.Documents, stats.Model, stats.Dimension)
	return nil
}
