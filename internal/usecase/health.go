package usecase

import (
	"context"
	"fmt"
	"time"

	"codeqa/internal/domain"
	"codeqa/internal/port"
)

const (
	statusOK       = "ok"
	statusError    = "error"
	statusDegraded = "degraded"
)

// HealthChecker probes the store and the completion backend.
type HealthChecker struct {
	corpus    *Corpus
	completer port.Completer
	provider  string
	timeout   time.Duration
}

// NewHealthChecker creates a checker. provider is the display name used in
// the LLM status message, e.g. "OpenAI" or "OpenRouter".
func NewHealthChecker(corpus *Corpus, completer port.Completer, provider string, timeout time.Duration) *HealthChecker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HealthChecker{corpus: corpus, completer: completer, provider: provider, timeout: timeout}
}

func (h *HealthChecker) Check(ctx context.Context) domain.HealthReport {
	report := domain.HealthReport{
		Backend:  domain.ComponentHealth{Status: statusOK, Message: "Backend is running"},
		VectorDB: h.checkStore(ctx),
		LLM:      h.checkLLM(ctx),
	}

	report.Status = statusOK
	for _, c := range []domain.ComponentHealth{report.Backend, report.VectorDB, report.LLM} {
		if c.Status != statusOK {
			report.Status = statusDegraded
		}
	}
	return report
}

func (h *HealthChecker) checkStore(ctx context.Context) domain.ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	zero := 0
	if err := h.corpus.Ping(ctx); err != nil {
		return domain.ComponentHealth{Status: statusError, Message: err.Error(), ChunkCount: &zero}
	}
	n, err := h.corpus.Count(ctx)
	if err != nil {
		return domain.ComponentHealth{Status: statusError, Message: err.Error(), ChunkCount: &zero}
	}
	return domain.ComponentHealth{Status: statusOK, Message: "Vector store is available", ChunkCount: &n}
}

func (h *HealthChecker) checkLLM(ctx context.Context) domain.ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := h.completer.Ping(ctx); err != nil {
		return domain.ComponentHealth{Status: statusError, Message: err.Error()}
	}
	return domain.ComponentHealth{Status: statusOK, Message: fmt.Sprintf("LLM (%s) connection OK", h.provider)}
}
