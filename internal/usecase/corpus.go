package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"codeqa/internal/adapter/cache"
	"codeqa/internal/domain"
	"codeqa/internal/logging"
	"codeqa/internal/port"
)

// Corpus is a handle on one stored codebase. Rebuilds hold the write lock
// for the whole replacement, so readers see either the old chunks or the
// new ones and never a mixture.
type Corpus struct {
	mu    sync.RWMutex
	store port.Store
	cache *cache.QueryCache
	log   *slog.Logger
}

// NewCorpus wraps store. qc may be nil to disable result caching.
func NewCorpus(store port.Store, qc *cache.QueryCache, log *slog.Logger) *Corpus {
	return &Corpus{store: store, cache: qc, log: logging.OrDiscard(log)}
}

// Rebuild replaces the stored chunks with chunks. Stores implementing
// port.Replacer keep their previous contents when the rebuild fails; other
// stores are cleared first and may be left empty.
func (c *Corpus) Rebuild(ctx context.Context, chunks []domain.Chunk) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache != nil {
		defer c.cache.Invalidate()
	}

	if r, ok := c.store.(port.Replacer); ok {
		if err := r.Replace(ctx, chunks); err != nil {
			if errors.Is(err, domain.ErrClearFailed) {
				return err
			}
			return fmt.Errorf("replace chunks: %w", err)
		}
	} else {
		if err := c.store.Clear(ctx); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrClearFailed, err)
		}
		if err := c.store.Add(ctx, chunks); err != nil {
			return fmt.Errorf("add chunks: %w", err)
		}
	}

	c.log.Info("corpus rebuilt", "chunks", len(chunks))
	return nil
}

func (c *Corpus) Count(ctx context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.Count(ctx)
}

func (c *Corpus) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

// requireChunks returns an ErrEmptyCorpus error carrying msg when nothing
// is indexed.
func (c *Corpus) requireChunks(ctx context.Context, msg string) error {
	n, err := c.Count(ctx)
	if err != nil {
		return fmt.Errorf("count chunks: %w", err)
	}
	if n == 0 {
		return &domain.Error{Kind: domain.ErrEmptyCorpus, Msg: msg}
	}
	return nil
}
