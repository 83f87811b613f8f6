package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"

	"codeqa/internal/domain"
)

// Classify wraps an SDK error with the matching domain sentinel so callers
// can tell rejected credentials and timeouts apart from other failures.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrAuth) || errors.Is(err, domain.ErrTimeout) || errors.Is(err, domain.ErrBackend) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}

	var oaiErr *openai.Error
	if errors.As(err, &oaiErr) && isAuthStatus(oaiErr.StatusCode) {
		return fmt.Errorf("%w: %w", domain.ErrAuth, err)
	}
	var antErr *anthropic.Error
	if errors.As(err, &antErr) && isAuthStatus(antErr.StatusCode) {
		return fmt.Errorf("%w: %w", domain.ErrAuth, err)
	}

	return fmt.Errorf("%w: %w", domain.ErrBackend, err)
}

func isAuthStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

func missingKey(provider string) error {
	return fmt.Errorf("%w: no %s API key configured", domain.ErrAuth, provider)
}
