package memstore

import (
	"context"
	"fmt"
	"sync"

	"codeqa/internal/adapter/vector"
	"codeqa/internal/domain"
	"codeqa/internal/port"
)

// MemoryCorpus keeps chunks and vectors in process memory. Contents are lost
// on exit; it backs `serve` without a data dir and most tests.
type MemoryCorpus struct {
	embedder port.Embedder

	mu      sync.RWMutex
	chunks  []domain.Chunk
	vectors [][]float32
}

func NewMemoryCorpus(embedder port.Embedder) *MemoryCorpus {
	return &MemoryCorpus{embedder: embedder}
}

func (s *MemoryCorpus) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = nil
	s.vectors = nil
	return nil
}

func (s *MemoryCorpus) Add(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	vectors, err := s.embed(ctx, chunks)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunks...)
	s.vectors = append(s.vectors, vectors...)
	return nil
}

// Replace embeds chunks and then swaps them in. A failed embedding leaves the
// current contents untouched.
func (s *MemoryCorpus) Replace(ctx context.Context, chunks []domain.Chunk) error {
	var vectors [][]float32
	if len(chunks) > 0 {
		var err error
		if vectors, err = s.embed(ctx, chunks); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append([]domain.Chunk(nil), chunks...)
	s.vectors = vectors
	return nil
}

func (s *MemoryCorpus) embed(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for %d chunks", domain.ErrBackend, len(vectors), len(chunks))
	}
	return vectors, nil
}

func (s *MemoryCorpus) Query(ctx context.Context, text string, k int) ([]domain.ScoredChunk, error) {
	s.mu.RLock()
	empty := len(s.chunks) == 0
	s.mu.RUnlock()
	if empty || k <= 0 {
		return nil, nil
	}

	qv, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(qv) != 1 {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for one query", domain.ErrBackend, len(qv))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := vector.TopK(qv[0], s.vectors, k)
	results := make([]domain.ScoredChunk, len(hits))
	for i, h := range hits {
		results[i] = domain.ScoredChunk{Chunk: s.chunks[h.Index], Score: h.Score}
	}
	return results, nil
}

func (s *MemoryCorpus) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

func (s *MemoryCorpus) Ping(ctx context.Context) error {
	return nil
}
