package port

import "context"

// Completer is a single-shot chat completion backend.
type Completer interface {
	// Complete returns the model's text for the given prompts. Failures wrap
	// domain.ErrAuth, domain.ErrTimeout or domain.ErrBackend.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Ping checks connectivity and credentials.
	Ping(ctx context.Context) error

	// ModelName returns the name of the model.
	ModelName() string
}
