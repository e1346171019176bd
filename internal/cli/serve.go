package cli

import (
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"advisor/config"
	"advisor/internal/adapter/cache"
	"advisor/internal/adapter/embedding"
	"advisor/internal/adapter/history"
	"advisor/internal/adapter/llm"
	"advisor/internal/adapter/retriever"
	"advisor/internal/adapter/store"
	"advisor/internal/port"
	"advisor/internal/server"
	"advisor/internal/usecase"
)

var (
	serveAddr       string
	serveDevHistory bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the conversational chat HTTP service",
	Long: `Serve starts the chat API on top of a previously built index.

The index, the embedding and completion clients and the session store are
created once at startup and shared by all requests. Missing credentials or
an unreachable session store abort startup.

Examples:
  advisor serve                 # Listen on the configured address
  advisor serve --addr :9000    # Override the listen address`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveDevHistory, "dev-history", false, "keep session history in memory instead of Redis")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	logger := slog.Default()

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

	count, err := vectors.Count()
	if err != nil {
		return err
	}
	logger.Info("index loaded", "documents", count, "model", embedder.ModelName())

	model, err := llm.NewClient(llm.Options{
		APIKey:      secrets.APIKey,
		Model:       cfg.Chat.Model,
		BaseURL:     secrets.BaseURL,
		Temperature: cfg.Chat.Temperature,
		Timeout:     cfg.Chat.Timeout,
	})
	if err != nil {
		return err
	}

	hist, err := buildHistoryStore(cmd, cfg, secrets)
	if err != nil {
		return err
	}

	semantic := retriever.NewSemanticRetriever(vectors, embedder, st)
	cached := cache.NewCachedRetriever(semantic, cache.NewQueryCache(cfg.Retrieve.CacheSize, cfg.Retrieve.CacheTTL))

	chat, err := usecase.NewChatService(cached, model, hist, cfg.Retrieve.TopK, logger)
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.New(chat, logger).Run(ctx, addr, cfg.Server.ShutdownTimeout)
}

func buildHistoryStore(cmd *cobra.Command, cfg *config.Config, secrets config.Secrets) (port.HistoryStore, error) {
	if serveDevHistory {
		return history.NewMemoryStore(cfg.Session.TTL), nil
	}

	if secrets.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is not set (or pass --dev-history for in-memory sessions)")
	}
	redisOpts, err := redis.ParseURL(secrets.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	rs, err := history.NewRedisStore(redis.NewClient(redisOpts), history.Options{
		TTL:       cfg.Session.TTL,
		KeyPrefix: cfg.Session.KeyPrefix,
	})
	if err != nil {
		return nil, err
	}
	if err := rs.Ping(cmd.Context()); err != nil {
		return nil, err
	}
	return rs, nil
}
