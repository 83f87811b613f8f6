package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"codeqa/config"
	"codeqa/internal/adapter/cache"
	"codeqa/internal/adapter/embedding"
	"codeqa/internal/adapter/store"
	"codeqa/internal/port"
	"codeqa/internal/usecase"
)

func main() {
	indexPath := flag.String("index", ".", "Path to the directory holding .codeqa")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 10, "Number of results")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run ./cmd/benchmark -index ./tmp -q \"query\"")
		fmt.Println("\nReports:")
		fmt.Println("  1. Embedding setup (model, dimension, chunk count)")
		fmt.Println("  2. Similarity of the top matches")
		fmt.Println("  3. Cold and cached retrieval latency")
		os.Exit(1)
	}

	_ = godotenv.Load()

	cfg, err := config.LoadFromDir(*indexPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyEnv(os.Getenv)

	dbPath := config.IndexDBPath(*indexPath)
	if cfg.Store.Path != "" {
		dbPath = cfg.Store.Path
	}
	if _, err := os.Stat(dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "No index at %s - run 'codeqa index' first\n", dbPath)
		os.Exit(1)
	}

	embedder := setupEmbedder(cfg)
	st, err := store.NewBoltCorpus(dbPath, embedder, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening index: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if rebuild, reason, err := st.Stale(cfg); err == nil && rebuild {
		fmt.Fprintf(os.Stderr, "Warning: %s; scores may be meaningless until re-indexed\n", reason)
	}

	ctx := context.Background()
	count, _ := st.Count(ctx)

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Chunks indexed: %d\n", count)
	fmt.Printf("Model: %s (%s)\n", embedder.ModelName(), cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d\n", embedder.Dimension())
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	start := time.Now()
	results, err := st.Query(ctx, *query, *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}
	cold := time.Since(start)

	if len(results) == 0 {
		fmt.Println("No matches.")
		return
	}

	fmt.Printf("Top %d matches:\n\n", len(results))

	totalScore := 0.0
	for i, r := range results {
		preview := r.Chunk.Text
		if len(preview) > 150 {
			preview = preview[:150] + "..."
		}
		preview = strings.ReplaceAll(preview, "\n", " ")

		similarity := r.Score
		totalScore += similarity

		fmt.Printf("%d. [%s %.3f] %s:L%d-%d\n", i+1, rating(similarity), similarity, shortPath(r.Chunk.Path), r.Chunk.StartLine, r.Chunk.EndLine)
		fmt.Printf("   %s\n\n", preview)
	}

	corpus := usecase.NewCorpus(st, cache.NewQueryCache(8, time.Minute), nil)
	if _, err := corpus.Retrieve(ctx, *query, *topK); err != nil {
		fmt.Fprintf(os.Stderr, "Retrieve error: %v\n", err)
		os.Exit(1)
	}
	start = time.Now()
	if _, err := corpus.Retrieve(ctx, *query, *topK); err != nil {
		fmt.Fprintf(os.Stderr, "Retrieve error: %v\n", err)
		os.Exit(1)
	}
	cached := time.Since(start)

	avgScore := totalScore / float64(len(results))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average similarity: %.3f\n", avgScore)
	fmt.Printf("  Top-1 similarity:   %.3f\n", results[0].Score)
	fmt.Printf("  Cold query:         %s\n", cold)
	fmt.Printf("  Cached query:       %s\n", cached)

	if avgScore > 0.5 {
		fmt.Println("  Status: GOOD - retrieval working well")
	} else if avgScore > 0.3 {
		fmt.Println("  Status: OK - results are somewhat related")
	} else {
		fmt.Println("  Status: POOR - may need better embeddings or re-indexing")
	}
}

func rating(similarity float64) string {
	switch {
	case similarity > 0.7:
		return "HIGH"
	case similarity > 0.5:
		return "GOOD"
	case similarity > 0.3:
		return "OK"
	default:
		return "LOW"
	}
}

func shortPath(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) > 2 {
		return parts[len(parts)-1]
	}
	return path
}

func setupEmbedder(cfg *config.Config) port.Embedder {
	if cfg.Embedding.Provider == "hash" {
		return embedding.NewHashEmbedder(cfg.Embedding.Dimension)
	}
	return embedding.NewOpenAIEmbedder(embedding.Options{
		APIKey:     os.Getenv(cfg.Embedding.APIKeyEnv),
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimension:  cfg.Embedding.Dimension,
		BatchSize:  cfg.Embedding.BatchSize,
		MaxRetries: 2,
	})
}
