package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"codeqa/internal/adapter/analyzer"
	"codeqa/internal/adapter/citation"
	"codeqa/internal/domain"
	"codeqa/internal/logging"
	"codeqa/internal/port"
)

// Assembler turns retrieved snippets into a cited answer with one call to
// the completion backend.
type Assembler struct {
	completer port.Completer
	tokenizer *analyzer.Tokenizer
	timeout   time.Duration
	verify    bool
	log       *slog.Logger
}

// NewAssembler creates an assembler. A zero timeout leaves the deadline to
// ctx. With verify set, declared citations must point inside a retrieved
// snippet.
func NewAssembler(completer port.Completer, timeout time.Duration, verify bool, log *slog.Logger) *Assembler {
	return &Assembler{completer: completer, tokenizer: analyzer.NewTokenizer(), timeout: timeout, verify: verify, log: logging.OrDiscard(log)}
}

// Assemble never fails. Backend errors come back as the answer text with
// ErrorKind set and every retrieved snippet as a reference.
func (a *Assembler) Assemble(ctx context.Context, question string, retrieved []domain.RetrievedSnippet) domain.AnswerResult {
	if len(retrieved) == 0 {
		return domain.AnswerResult{
			Answer:            SentinelAnswer,
			References:        []domain.CitationReference{},
			RetrievedSnippets: []domain.RetrievedSnippet{},
		}
	}

	defaults := domain.ReferencesFor(retrieved)

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	userPrompt := answerUserPrompt(question, retrieved)
	a.log.Debug("requesting completion", "model", a.completer.ModelName(), "snippets", len(retrieved), "approx_tokens", a.tokenizer.CountTokens(userPrompt))

	raw, err := a.completer.Complete(ctx, answerSystemPrompt, userPrompt)
	if err != nil {
		kind := domain.ErrorKind(err)
		a.log.Warn("completion failed", "kind", kind, "model", a.completer.ModelName(), "error", err)
		return domain.AnswerResult{
			Answer:            failureText(err),
			References:        defaults,
			RetrievedSnippets: retrieved,
			ErrorKind:         kind,
		}
	}

	var answer string
	var refs []domain.CitationReference
	if a.verify {
		answer, refs = citation.ReconcileVerified(raw, retrieved)
	} else {
		answer, refs = citation.Reconcile(raw, defaults)
	}

	return domain.AnswerResult{
		Answer:            answer,
		References:        refs,
		RetrievedSnippets: retrieved,
	}
}

func failureText(err error) string {
	if errors.Is(err, domain.ErrAuth) {
		return AuthMessage
	}
	return "LLM error: " + err.Error()
}

// QueryUseCase answers questions against a corpus.
type QueryUseCase struct {
	corpus    *Corpus
	assembler *Assembler
	topK      int
}

func NewQueryUseCase(corpus *Corpus, assembler *Assembler, topK int) *QueryUseCase {
	return &QueryUseCase{corpus: corpus, assembler: assembler, topK: topK}
}

// Ask retrieves the top snippets for question and assembles an answer.
// It fails with domain.ErrEmptyCorpus when nothing is indexed.
func (u *QueryUseCase) Ask(ctx context.Context, question string) (domain.AnswerResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.AnswerResult{}, domain.Invalidf("Question must not be empty")
	}
	if err := u.corpus.requireChunks(ctx, NotIndexedMessage); err != nil {
		return domain.AnswerResult{}, err
	}

	retrieved, err := u.corpus.Retrieve(ctx, question, u.topK)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	return u.assembler.Assemble(ctx, question, retrieved), nil
}
