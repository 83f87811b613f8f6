package usecase

import (
	"context"
	"log/slog"
	"time"

	"codeqa/internal/domain"
	"codeqa/internal/logging"
	"codeqa/internal/port"
)

const refactorQuery = "code structure functions classes"

// RefactorUseCase asks the completion backend for refactoring ideas over
// a broad sample of the corpus.
type RefactorUseCase struct {
	corpus    *Corpus
	completer port.Completer
	topK      int
	timeout   time.Duration
	log       *slog.Logger
}

func NewRefactorUseCase(corpus *Corpus, completer port.Completer, topK int, timeout time.Duration, log *slog.Logger) *RefactorUseCase {
	return &RefactorUseCase{corpus: corpus, completer: completer, topK: topK, timeout: timeout, log: logging.OrDiscard(log)}
}

// Suggest returns a single suggestion holding the model's reply, or one
// titled "Error" when the backend failed. Auth failures are returned as
// errors so callers can show remediation.
func (u *RefactorUseCase) Suggest(ctx context.Context) (domain.RefactorResult, error) {
	if err := u.corpus.requireChunks(ctx, NotIndexedMessage); err != nil {
		return domain.RefactorResult{}, err
	}

	retrieved, err := u.corpus.Retrieve(ctx, refactorQuery, u.topK)
	if err != nil {
		return domain.RefactorResult{}, err
	}
	if len(retrieved) == 0 {
		return domain.RefactorResult{
			Suggestions:       []domain.RefactorSuggestion{},
			RetrievedSnippets: []domain.RetrievedSnippet{},
			Message:           "No code indexed. Index a codebase first.",
		}, nil
	}

	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	raw, err := u.completer.Complete(ctx, refactorSystemPrompt, refactorUserPrompt(retrieved))
	if err != nil {
		if domain.ErrorKind(err) == domain.KindAuth {
			return domain.RefactorResult{}, err
		}
		u.log.Warn("refactor completion failed", "error", err)
		return domain.RefactorResult{
			Suggestions:       []domain.RefactorSuggestion{{Title: "Error", Description: err.Error()}},
			RetrievedSnippets: retrieved,
		}, nil
	}

	return domain.RefactorResult{
		Suggestions:       []domain.RefactorSuggestion{{Title: "Refactor suggestions", Description: raw}},
		RetrievedSnippets: retrieved,
	}, nil
}
