package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"codeqa/internal/domain"
)

// Config holds all configuration for the code Q&A tool.
type Config struct {
	Index     IndexConfig     `yaml:"index"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Store     StoreConfig     `yaml:"store"`
	History   HistoryConfig   `yaml:"history"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// IndexConfig holds chunking and source loading settings.
type IndexConfig struct {
	Includes     []string `yaml:"includes"`
	Excludes     []string `yaml:"excludes"`
	ChunkSize    int      `yaml:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
	MaxFileBytes int64    `yaml:"max_file_bytes"`
	// CloneTimeoutSeconds bounds `git clone` for repository URLs.
	CloneTimeoutSeconds int `yaml:"clone_timeout_seconds"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK            int  `yaml:"top_k"`
	RefactorTopK    int  `yaml:"refactor_top_k"`
	VerifyCitations bool `yaml:"verify_citations"`
	CacheSize       int  `yaml:"cache_size"` // 0 disables the query cache
	CacheTTLSeconds int  `yaml:"cache_ttl_seconds"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "openai" or "hash"
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

// LLMConfig holds completion backend configuration.
type LLMConfig struct {
	Provider            string  `yaml:"provider"` // "openai" or "anthropic"
	Model               string  `yaml:"model"`
	APIKeyEnv           string  `yaml:"api_key_env"`
	BaseURL             string  `yaml:"base_url"`
	Temperature         float64 `yaml:"temperature"`
	RefactorTemperature float64 `yaml:"refactor_temperature"`
	MaxTokens           int     `yaml:"max_tokens"`
	TimeoutSeconds      int     `yaml:"timeout_seconds"`
}

// StoreConfig selects the corpus backend.
type StoreConfig struct {
	Backend string       `yaml:"backend"` // "bolt", "memory" or "qdrant"
	Path    string       `yaml:"path"`
	Qdrant  QdrantConfig `yaml:"qdrant"`
}

type QdrantConfig struct {
	URL            string `yaml:"url"`
	Collection     string `yaml:"collection"`
	APIKeyEnv      string `yaml:"api_key_env"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// HistoryConfig holds conversation history settings.
type HistoryConfig struct {
	Backend  string `yaml:"backend"` // "memory" or "sqlite"
	Capacity int    `yaml:"capacity"`
	Path     string `yaml:"path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Excludes:            []string{"**/node_modules/**", "**/vendor/**", "**/.git/**", "**/__MACOSX/**", "**/dist/**", "**/build/**", "**/__pycache__/**", "**/*.min.js"},
			ChunkSize:           800,
			ChunkOverlap:        100,
			MaxFileBytes:        500_000,
			CloneTimeoutSeconds: 120,
		},
		Retrieve: RetrieveConfig{
			TopK:            6,
			RefactorTopK:    15,
			VerifyCitations: false,
			CacheSize:       100,
			CacheTTLSeconds: 300,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
			BatchSize: 100,
		},
		LLM: LLMConfig{
			Provider:            "openai",
			Model:               "gpt-4o-mini",
			APIKeyEnv:           "OPENAI_API_KEY",
			Temperature:         0.2,
			RefactorTemperature: 0.3,
			MaxTokens:           1024,
			TimeoutSeconds:      60,
		},
		Store: StoreConfig{
			Backend: "bolt",
			Qdrant: QdrantConfig{
				URL:            "http://localhost:6333",
				Collection:     "codebase",
				APIKeyEnv:      "QDRANT_API_KEY",
				TimeoutSeconds: 15,
			},
		},
		History: HistoryConfig{
			Backend:  "memory",
			Capacity: 10,
		},
		Server: ServerConfig{
			Addr:           ":8000",
			AllowedOrigins: []string{"http://localhost:5173", "http://127.0.0.1:5173"},
			MaxUploadBytes: 100 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for codeqa.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "codeqa.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".codeqa", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// ApplyEnv overlays environment variables on top of file settings. An
// OpenRouter base URL switches model defaults to their prefixed names.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}

	if base := getenv("OPENAI_BASE_URL"); base != "" {
		c.LLM.BaseURL = base
		c.Embedding.BaseURL = base
	}
	if IsOpenRouter(c.LLM.BaseURL) {
		if c.LLM.Model == "gpt-4o-mini" {
			c.LLM.Model = "openai/gpt-4o-mini"
		}
		if c.Embedding.Model == "text-embedding-3-small" {
			c.Embedding.Model = "openai/text-embedding-3-small"
		}
	}
	if m := getenv("OPENAI_CHAT_MODEL"); m != "" {
		c.LLM.Model = m
	}
	if m := getenv("OPENAI_EMBEDDING_MODEL"); m != "" {
		c.Embedding.Model = m
	}
	if p := getenv("CODEQA_STORE_PATH"); p != "" {
		c.Store.Path = p
	}
	if l := getenv("CODEQA_LOG_LEVEL"); l != "" {
		c.Logging.Level = l
	}
}

// IsOpenRouter reports whether baseURL points at OpenRouter.
func IsOpenRouter(baseURL string) bool {
	return strings.Contains(strings.ToLower(baseURL), "openrouter")
}

// Validate checks settings that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.Index.ChunkSize < 1 {
		return fmt.Errorf("%w: index.chunk_size must be at least 1", domain.ErrInvalidInput)
	}
	if c.Index.ChunkOverlap < 0 || c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return fmt.Errorf("%w: index.chunk_overlap must be in [0, chunk_size)", domain.ErrInvalidInput)
	}
	if c.Index.MaxFileBytes < 1 {
		return fmt.Errorf("%w: index.max_file_bytes must be positive", domain.ErrInvalidInput)
	}
	if c.Retrieve.TopK < 1 || c.Retrieve.RefactorTopK < 1 {
		return fmt.Errorf("%w: retrieve.top_k and retrieve.refactor_top_k must be at least 1", domain.ErrInvalidInput)
	}
	if c.Store.Qdrant.TimeoutSeconds < 0 {
		return fmt.Errorf("%w: store.qdrant.timeout_seconds must not be negative", domain.ErrInvalidInput)
	}
	if c.History.Capacity < 1 {
		return fmt.Errorf("%w: history.capacity must be at least 1", domain.ErrInvalidInput)
	}
	switch c.Store.Backend {
	case "bolt", "memory", "qdrant":
	default:
		return fmt.Errorf("%w: unknown store.backend %q", domain.ErrInvalidInput, c.Store.Backend)
	}
	switch c.History.Backend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("%w: unknown history.backend %q", domain.ErrInvalidInput, c.History.Backend)
	}
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("%w: unknown llm.provider %q", domain.ErrInvalidInput, c.LLM.Provider)
	}
	switch c.Embedding.Provider {
	case "openai", "hash":
	default:
		return fmt.Errorf("%w: unknown embedding.provider %q", domain.ErrInvalidInput, c.Embedding.Provider)
	}
	return nil
}

func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

func (c *Config) CloneTimeout() time.Duration {
	return time.Duration(c.Index.CloneTimeoutSeconds) * time.Second
}

func (c *Config) QdrantTimeout() time.Duration {
	return time.Duration(c.Store.Qdrant.TimeoutSeconds) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Retrieve.CacheTTLSeconds) * time.Second
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IndexDBPath returns the path to the index database.
func IndexDBPath(dir string) string {
	return filepath.Join(dir, ".codeqa", "index.db")
}

// HistoryDBPath returns the path to the sqlite history database.
func HistoryDBPath(dir string) string {
	return filepath.Join(dir, ".codeqa", "history.db")
}

// EnsureDataDir ensures the .codeqa directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".codeqa"), 0755)
}
