// Package history keeps the most recent question/answer pairs.
package history

import (
	"context"
	"sync"

	"codeqa/internal/domain"
)

// RingHistory is a fixed-capacity ring buffer; the oldest entry is
// overwritten once it is full.
type RingHistory struct {
	mu      sync.Mutex
	entries []domain.HistoryEntry
	next    int
	full    bool
}

func NewRingHistory(capacity int) *RingHistory {
	if capacity < 1 {
		capacity = 1
	}
	return &RingHistory{entries: make([]domain.HistoryEntry, capacity)}
}

func (h *RingHistory) Add(ctx context.Context, entry domain.HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.next] = entry
	h.next = (h.next + 1) % len(h.entries)
	if h.next == 0 {
		h.full = true
	}
	return nil
}

func (h *RingHistory) List(ctx context.Context) ([]domain.HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.full {
		return append([]domain.HistoryEntry(nil), h.entries[:h.next]...), nil
	}
	out := make([]domain.HistoryEntry, 0, len(h.entries))
	out = append(out, h.entries[h.next:]...)
	out = append(out, h.entries[:h.next]...)
	return out, nil
}

func (h *RingHistory) Close() error {
	return nil
}
