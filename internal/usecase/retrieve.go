package usecase

import (
	"context"
	"fmt"

	"codeqa/internal/domain"
)

// Retrieve returns at most k snippets for query, best first. An empty
// corpus yields an empty result, not an error.
func (c *Corpus) Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievedSnippet, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1, got %d", domain.ErrInvalidInput, k)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.cache != nil {
		if hit, ok := c.cache.Get(query, k); ok {
			c.log.Debug("retrieval cache hit", "k", k, "results", len(hit))
			return hit, nil
		}
	}

	scored, err := c.store.Query(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}
	snippets := ToSnippets(scored, k)

	if c.cache != nil {
		c.cache.Put(query, k, snippets)
	}
	return snippets, nil
}

// ToSnippets drops scores and keeps the first k chunks in store order.
func ToSnippets(scored []domain.ScoredChunk, k int) []domain.RetrievedSnippet {
	if len(scored) > k {
		scored = scored[:k]
	}
	snippets := make([]domain.RetrievedSnippet, 0, len(scored))
	for _, sc := range scored {
		snippets = append(snippets, domain.RetrievedSnippet{
			Path:      sc.Chunk.Path,
			StartLine: sc.Chunk.StartLine,
			EndLine:   sc.Chunk.EndLine,
			Text:      sc.Chunk.Text,
		})
	}
	return snippets
}
