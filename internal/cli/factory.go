package cli

import (
	"fmt"
	"log/slog"
	"os"

	"codeqa/config"
	"codeqa/internal/adapter/cache"
	"codeqa/internal/adapter/chunker"
	"codeqa/internal/adapter/embedding"
	"codeqa/internal/adapter/fs"
	"codeqa/internal/adapter/history"
	"codeqa/internal/adapter/llm"
	"codeqa/internal/adapter/memstore"
	"codeqa/internal/adapter/qdrant"
	"codeqa/internal/adapter/store"
	"codeqa/internal/port"
	"codeqa/internal/usecase"
)

const sdkMaxRetries = 2

func newEmbedder(cfg *config.Config) port.Embedder {
	if cfg.Embedding.Provider == "hash" {
		return embedding.NewHashEmbedder(cfg.Embedding.Dimension)
	}
	return embedding.NewOpenAIEmbedder(embedding.Options{
		APIKey:     os.Getenv(cfg.Embedding.APIKeyEnv),
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimension:  cfg.Embedding.Dimension,
		BatchSize:  cfg.Embedding.BatchSize,
		MaxRetries: sdkMaxRetries,
	})
}

func newCompleter(cfg *config.Config, temperature float64) port.Completer {
	opts := llm.Options{
		APIKey:      os.Getenv(cfg.LLM.APIKeyEnv),
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		MaxRetries:  sdkMaxRetries,
	}
	if cfg.LLM.Provider == "anthropic" {
		return llm.NewAnthropicCompleter(opts)
	}
	return llm.NewOpenAICompleter(opts)
}

// providerLabel names the completion backend in health output.
func providerLabel(cfg *config.Config) string {
	switch {
	case cfg.LLM.Provider == "anthropic":
		return "Anthropic"
	case config.IsOpenRouter(cfg.LLM.BaseURL):
		return "OpenRouter"
	default:
		return "OpenAI"
	}
}

func newChunker(cfg *config.Config) (port.Chunker, error) {
	return chunker.NewLineChunker(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap)
}

func newFilter(cfg *config.Config) *fs.Filter {
	return fs.NewFilter(cfg.Index.Includes, cfg.Index.Excludes, cfg.Index.MaxFileBytes)
}

// openedStore is the configured store plus its bolt handle when the
// backend is bolt, for schema bookkeeping.
type openedStore struct {
	port.Store
	bolt *store.BoltCorpus
}

func (s *openedStore) Close() error {
	if s.bolt != nil {
		return s.bolt.Close()
	}
	return nil
}

func openStore(cfg *config.Config, dir string, embedder port.Embedder, log *slog.Logger) (*openedStore, error) {
	switch cfg.Store.Backend {
	case "memory":
		return &openedStore{Store: memstore.NewMemoryCorpus(embedder)}, nil
	case "qdrant":
		return &openedStore{Store: qdrant.NewCorpus(qdrant.Config{
			URL:        cfg.Store.Qdrant.URL,
			APIKey:     os.Getenv(cfg.Store.Qdrant.APIKeyEnv),
			Collection: cfg.Store.Qdrant.Collection,
			Timeout:    cfg.QdrantTimeout(),
		}, embedder, log)}, nil
	}

	path := cfg.Store.Path
	if path == "" {
		if err := config.EnsureDataDir(dir); err != nil {
			return nil, fmt.Errorf("failed to create .codeqa directory: %w", err)
		}
		path = config.IndexDBPath(dir)
	}
	bc, err := store.NewBoltCorpus(path, embedder, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open index store: %w", err)
	}
	return &openedStore{Store: bc, bolt: bc}, nil
}

func openHistory(cfg *config.Config, dir string) (port.History, error) {
	if cfg.History.Backend != "sqlite" {
		return history.NewRingHistory(cfg.History.Capacity), nil
	}
	path := cfg.History.Path
	if path == "" {
		if err := config.EnsureDataDir(dir); err != nil {
			return nil, fmt.Errorf("failed to create .codeqa directory: %w", err)
		}
		path = config.HistoryDBPath(dir)
	}
	return history.OpenSQLite(path, cfg.History.Capacity)
}

func newCorpus(cfg *config.Config, st port.Store, log *slog.Logger) *usecase.Corpus {
	var qc *cache.QueryCache
	if cfg.Retrieve.CacheSize > 0 {
		qc = cache.NewQueryCache(cfg.Retrieve.CacheSize, cfg.CacheTTL())
	}
	return usecase.NewCorpus(st, qc, log)
}

// app bundles everything a command needs over one opened store.
type app struct {
	store    *openedStore
	corpus   *usecase.Corpus
	indexer  *usecase.IndexUseCase
	query    *usecase.QueryUseCase
	refactor *usecase.RefactorUseCase
	health   *usecase.HealthChecker
}

func newApp(cfg *config.Config, dir string, log *slog.Logger) (*app, error) {
	st, err := openStore(cfg, dir, newEmbedder(cfg), log)
	if err != nil {
		return nil, err
	}
	chk, err := newChunker(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}

	// Pass the inner store so optional interfaces such as port.Replacer
	// stay visible to the corpus.
	corpus := newCorpus(cfg, st.Store, log)
	completer := newCompleter(cfg, cfg.LLM.Temperature)

	return &app{
		store:    st,
		corpus:   corpus,
		indexer:  usecase.NewIndexUseCase(corpus, chk, log),
		query:    usecase.NewQueryUseCase(corpus, usecase.NewAssembler(completer, cfg.LLMTimeout(), cfg.Retrieve.VerifyCitations, log), cfg.Retrieve.TopK),
		refactor: usecase.NewRefactorUseCase(corpus, newCompleter(cfg, cfg.LLM.RefactorTemperature), cfg.Retrieve.RefactorTopK, cfg.LLMTimeout(), log),
		health:   usecase.NewHealthChecker(corpus, completer, providerLabel(cfg), 0),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
