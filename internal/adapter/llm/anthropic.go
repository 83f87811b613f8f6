package llm

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	aoption "github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicMaxTokens = 1024

type AnthropicCompleter struct {
	client anthropic.Client
	opts   Options
}

func NewAnthropicCompleter(opts Options) *AnthropicCompleter {
	reqOpts := []aoption.RequestOption{aoption.WithAPIKey(strings.TrimSpace(opts.APIKey))}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		reqOpts = append(reqOpts, aoption.WithBaseURL(base))
	}
	if opts.MaxRetries >= 0 {
		reqOpts = append(reqOpts, aoption.WithMaxRetries(opts.MaxRetries))
	}
	return &AnthropicCompleter{client: anthropic.NewClient(reqOpts...), opts: opts}
}

func (c *AnthropicCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if strings.TrimSpace(c.opts.APIKey) == "" {
		return "", missingKey("Anthropic")
	}

	maxTokens := int64(c.opts.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.opts.Model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
		Temperature: anthropic.Float(c.opts.Temperature),
	}
	if s := strings.TrimSpace(systemPrompt); s != "" {
		params.System = []anthropic.TextBlockParam{{Text: s}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", Classify(err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

func (c *AnthropicCompleter) Ping(ctx context.Context) error {
	if strings.TrimSpace(c.opts.APIKey) == "" {
		return missingKey("Anthropic")
	}
	_, err := c.client.Models.List(ctx, anthropic.ModelListParams{})
	return Classify(err)
}

func (c *AnthropicCompleter) ModelName() string {
	return c.opts.Model
}
