package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the advisor service.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chat      ChatConfig      `yaml:"chat"`
	Session   SessionConfig   `yaml:"session"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// CatalogConfig holds catalog ingestion configuration.
type CatalogConfig struct {
	Source  string `yaml:"source"`   // doublestar glob of product JSON files
	DBPath  string `yaml:"db_path"`  // bbolt index file
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK          int           `yaml:"top_k"`
	CacheSize     int           `yaml:"cache_size"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
}

// EmbeddingConfig holds embedding collaborator configuration.
type EmbeddingConfig struct {
	Model     string        `yaml:"model"`
	BatchSize int           `yaml:"batch_size"`
	Dimension int           `yaml:"dimension"`
	Timeout   time.Duration `yaml:"timeout"`
}

// ChatConfig holds completion collaborator configuration.
type ChatConfig struct {
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// SessionConfig holds session history configuration.
type SessionConfig struct {
	TTL       time.Duration `yaml:"ttl"`
	KeyPrefix string        `yaml:"key_prefix"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Secrets holds values sourced from the environment, never from YAML.
type Secrets struct {
	APIKey   string // OPENAI_API_KEY
	BaseURL  string // OPENAI_BASE_URL, optional override of the default endpoint
	RedisURL string // REDIS_URL
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Catalog: CatalogConfig{
			Source: "products*.json",
			DBPath: filepath.Join(".advisor", "index.db"),
		},
		Retrieve: RetrieveConfig{
			TopK:      5,
			CacheSize: 100,
			CacheTTL:  5 * time.Minute,
		},
		Embedding: EmbeddingConfig{
			Model:     "text-embedding-ada-002",
			BatchSize: 100,
			Dimension: 1536,
			Timeout:   60 * time.Second,
		},
		Chat: ChatConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.3,
			Timeout:     60 * time.Second,
		},
		Session: SessionConfig{
			TTL:       24 * time.Hour,
			KeyPrefix: "advisor:session:",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults when
// the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for advisor.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "advisor.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".advisor", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// LoadSecrets reads collaborator credentials from the environment. A .env
// file in the working directory is loaded first if present. Required values
// that are absent produce an error, which is fatal at startup.
func LoadSecrets() (Secrets, error) {
	_ = godotenv.Load()

	s := Secrets{
		APIKey:   os.Getenv("OPENAI_API_KEY"),
		BaseURL:  os.Getenv("OPENAI_BASE_URL"),
		RedisURL: os.Getenv("REDIS_URL"),
	}
	if s.APIKey == "" {
		return Secrets{}, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	return s, nil
}

// EnsureDataDir ensures the directory holding the index database exists.
func EnsureDataDir(dbPath string) error {
	return os.MkdirAll(filepath.Dir(dbPath), 0755)
}
