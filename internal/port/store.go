package port

import (
	"context"

	"codeqa/internal/domain"
)

// Store is the storage collaborator holding one corpus of chunks.
type Store interface {
	// Clear removes every chunk.
	Clear(ctx context.Context) error

	// Add stores chunks together with their path and line range.
	Add(ctx context.Context, chunks []domain.Chunk) error

	// Query returns at most k chunks ordered best first.
	Query(ctx context.Context, text string, k int) ([]domain.ScoredChunk, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}

// Replacer is implemented by stores that can swap their whole contents in
// one step. On failure the previous contents must be left in place. A clear
// step that fails wraps domain.ErrClearFailed.
type Replacer interface {
	Replace(ctx context.Context, chunks []domain.Chunk) error
}
