package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"codeqa/internal/adapter/llm"
	"codeqa/internal/domain"
)

const defaultBatchSize = 100

type Options struct {
	APIKey    string
	BaseURL   string
	Model     string
	Dimension int
	BatchSize int
	// MaxRetries overrides the SDK default when >= 0.
	MaxRetries int
}

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	client openai.Client
	opts   Options
}

func NewOpenAIEmbedder(opts Options) *OpenAIEmbedder {
	if opts.Dimension <= 0 {
		opts.Dimension = dimensionFor(opts.Model)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(strings.TrimSpace(opts.APIKey))}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}
	if opts.MaxRetries >= 0 {
		reqOpts = append(reqOpts, option.WithMaxRetries(opts.MaxRetries))
	}

	return &OpenAIEmbedder{client: openai.NewClient(reqOpts...), opts: opts}
}

func dimensionFor(model string) int {
	switch strings.TrimPrefix(model, "openai/") {
	case "text-embedding-3-large":
		return 3072
	case "text-embedding-3-small", "text-embedding-ada-002":
		return 1536
	default:
		return 1536
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if strings.TrimSpace(e.opts.APIKey) == "" {
		return nil, fmt.Errorf("%w: no embedding API key configured", domain.ErrAuth)
	}

	var allEmbeddings [][]float32
	for i := 0; i < len(texts); i += e.opts.BatchSize {
		end := i + e.opts.BatchSize
		if end > len(texts) {
			end = len(texts)
		}

		embeddings, err := e.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		allEmbeddings = append(allEmbeddings, embeddings...)
	}

	return allEmbeddings, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: e.opts.Model,
	})
	if err != nil {
		return nil, llm.Classify(err)
	}

	embeddings := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || int(data.Index) >= len(embeddings) {
			continue
		}
		vec := make([]float32, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float32(v)
		}
		embeddings[data.Index] = vec
	}

	for i, vec := range embeddings {
		if vec == nil {
			return nil, fmt.Errorf("%w: embedding response missing index %d", domain.ErrBackend, i)
		}
	}
	return embeddings, nil
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.opts.Dimension
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.opts.Model
}
