package llm

import (
	"context"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Options configures a completion backend.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	// MaxRetries overrides the SDK default when >= 0.
	MaxRetries int
}

// OpenAICompleter talks to any OpenAI-compatible chat completions endpoint
// (OpenAI itself, OpenRouter, local gateways).
type OpenAICompleter struct {
	client openai.Client
	opts   Options
}

func NewOpenAICompleter(opts Options) *OpenAICompleter {
	reqOpts := []option.RequestOption{option.WithAPIKey(strings.TrimSpace(opts.APIKey))}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}
	if opts.MaxRetries >= 0 {
		reqOpts = append(reqOpts, option.WithMaxRetries(opts.MaxRetries))
	}
	return &OpenAICompleter{client: openai.NewClient(reqOpts...), opts: opts}
}

func (c *OpenAICompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if strings.TrimSpace(c.opts.APIKey) == "" {
		return "", missingKey("OpenAI")
	}

	params := openai.ChatCompletionNewParams{
		Model: c.opts.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(c.opts.Temperature),
	}
	if c.opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.opts.MaxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", Classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAICompleter) Ping(ctx context.Context) error {
	if strings.TrimSpace(c.opts.APIKey) == "" {
		return missingKey("OpenAI")
	}
	_, err := c.client.Models.List(ctx)
	return Classify(err)
}

func (c *OpenAICompleter) ModelName() string {
	return c.opts.Model
}
