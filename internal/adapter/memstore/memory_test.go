package memstore

import (
	"context"
	"errors"
	"testing"

	"codeqa/internal/adapter/embedding"
	"codeqa/internal/domain"
)

type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, domain.ErrAuth
}

func (failingEmbedder) Dimension() int    { return 8 }
func (failingEmbedder) ModelName() string { return "failing" }

func TestMemoryCorpusAddQuery(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCorpus(embedding.NewHashEmbedder(128))

	chunks := []domain.Chunk{
		{ID: "a.go:1:2", Path: "a.go", StartLine: 1, EndLine: 2, Text: "func parseFlags() {}"},
		{ID: "b.go:1:9", Path: "b.go", StartLine: 1, EndLine: 9, Text: "func renderTemplate(page string) {}"},
	}
	if err := s.Add(ctx, chunks); err != nil {
		t.Fatal(err)
	}

	results, err := s.Query(ctx, "render template", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Chunk != chunks[1] {
		t.Errorf("expected b.go first, got %+v", results[0].Chunk)
	}
	if results[0].Score < results[1].Score {
		t.Errorf("results not ordered best first")
	}
}

func TestMemoryCorpusEmpty(t *testing.T) {
	s := NewMemoryCorpus(embedding.NewHashEmbedder(16))
	results, err := s.Query(context.Background(), "anything", 3)
	if err != nil || len(results) != 0 {
		t.Fatalf("expected empty result, got %v %v", results, err)
	}
}

func TestMemoryCorpusEmbedFailure(t *testing.T) {
	s := NewMemoryCorpus(failingEmbedder{})
	err := s.Add(context.Background(), []domain.Chunk{{ID: "x:1:1", Path: "x", StartLine: 1, EndLine: 1, Text: "x"}})
	if !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if n, _ := s.Count(context.Background()); n != 0 {
		t.Errorf("failed add must not store anything, got %d", n)
	}
}

type toggleEmbedder struct {
	*embedding.HashEmbedder
	err error
}

func (e *toggleEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.HashEmbedder.Embed(ctx, texts)
}

func TestMemoryCorpusReplace(t *testing.T) {
	ctx := context.Background()
	emb := &toggleEmbedder{HashEmbedder: embedding.NewHashEmbedder(64)}
	s := NewMemoryCorpus(emb)

	old := []domain.Chunk{
		{ID: "a.go:1:2", Path: "a.go", StartLine: 1, EndLine: 2, Text: "func a() {}"},
		{ID: "b.go:1:2", Path: "b.go", StartLine: 1, EndLine: 2, Text: "func b() {}"},
	}
	if err := s.Add(ctx, old); err != nil {
		t.Fatal(err)
	}

	emb.err = domain.ErrAuth
	if err := s.Replace(ctx, old[:1]); !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if n, _ := s.Count(ctx); n != 2 {
		t.Fatalf("failed replace changed the corpus: %d chunks", n)
	}

	emb.err = nil
	if err := s.Replace(ctx, old[1:]); err != nil {
		t.Fatal(err)
	}
	results, err := s.Query(ctx, "anything", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Chunk.ID != "b.go:1:2" {
		t.Errorf("unexpected contents after replace: %+v", results)
	}
}
