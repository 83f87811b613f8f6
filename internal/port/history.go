package port

import (
	"context"

	"codeqa/internal/domain"
)

// History keeps a bounded list of recent question/answer pairs.
type History interface {
	Add(ctx context.Context, entry domain.HistoryEntry) error

	// List returns entries oldest first.
	List(ctx context.Context) ([]domain.HistoryEntry, error)

	Close() error
}
