package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"advisor/config"
	"advisor/internal/adapter/embedding"
	"advisor/internal/adapter/retriever"
	"advisor/internal/adapter/store"
)

var (
	queryText string
	queryTopK int
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a one-shot retrieval against the index",
	Long: `Query embeds a question and prints the closest catalog documents with
their similarity scores. Useful for inspecting what the chat service
would ground its answers on.

Examples:
  advisor query -q "something for dry skin"
  advisor query -q "vitamin c serum" -k 10`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "question to retrieve for (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of documents to return (default from config)")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	secrets, err := config.LoadSecrets()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	dbPath := cfg.Catalog.DBPath
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(GetRootDir(), dbPath)
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
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer st.Close()

	needsRebuild, err := st.NeedsRebuild(embedder.ModelName(), embedder.Dimension())
	if err != nil {
		return err
	}
	if needsRebuild {
		return fmt.Errorf("no usable index at %s for model %s. Run 'advisor ingest' first", dbPath, embedder.ModelName())
	}

	vectors, err := store.NewBoltVectorStore(st.DB(), embedder.Dimension())
	if err != nil {
		return fmt.Errorf("failed to load vectors: %w", err)
	}

	topK := cfg.Retrieve.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

	results, err := retriever.NewSemanticRetriever(vectors, embedder, st).
		Search(cmd.Context(), queryText, topK)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No documents found.")
		return nil
	}
	for i, result := range results {
		fmt.Printf("%2d. %.4f  %s\n", i+1, result.Score, result.Document.Title())
		fmt.Printf("           %s\n", result.Document.Source())
	}
	return nil
}
