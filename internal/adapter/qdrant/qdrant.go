// Package qdrant stores the corpus in a Qdrant collection over its REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"codeqa/internal/domain"
	"codeqa/internal/logging"
	"codeqa/internal/port"
)

const upsertBatch = 256

var errNotFound = errors.New("not found")

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// Corpus assumes cosine distance. The collection is dropped on Clear and
// recreated on the next Add with the dimension of the first vector.
type Corpus struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
	embedder   port.Embedder
	log        *slog.Logger

	mu    sync.Mutex
	ready bool
}

func NewCorpus(cfg Config, embedder port.Embedder, log *slog.Logger) *Corpus {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Corpus{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
		embedder:   embedder,
		log:        logging.OrDiscard(log),
	}
}

// PointID maps a chunk ID onto the UUID Qdrant requires. The mapping is
// deterministic so re-indexing the same chunk overwrites its point.
func PointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(chunkID)).String()
}

type payload struct {
	ChunkID   string `json:"chunk_id"`
	Path      string `json:"file_path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Text      string `json:"text"`
}

func (c *Corpus) collectionURL() string {
	return fmt.Sprintf("%s/collections/%s", c.url, c.collection)
}

func (c *Corpus) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.do(ctx, http.MethodDelete, c.collectionURL(), nil, nil)
	if err != nil && !errors.Is(err, errNotFound) {
		return fmt.Errorf("drop collection %s: %w", c.collection, err)
	}
	c.ready = false
	return nil
}

func (c *Corpus) ensureCollection(ctx context.Context, dimension int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready {
		return nil
	}

	err := c.do(ctx, http.MethodGet, c.collectionURL(), nil, nil)
	if errors.Is(err, errNotFound) {
		body := map[string]any{
			"vectors": map[string]any{
				"size":     dimension,
				"distance": "Cosine",
			},
		}
		err = c.do(ctx, http.MethodPut, c.collectionURL(), body, nil)
		if err == nil {
			c.log.Info("created qdrant collection", "collection", c.collection, "dimension", dimension)
		}
	}
	if err != nil {
		return fmt.Errorf("prepare collection %s: %w", c.collection, err)
	}
	c.ready = true
	return nil
}

func (c *Corpus) Add(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors, err := c.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: embedder returned %d vectors for %d chunks", domain.ErrBackend, len(vectors), len(chunks))
	}

	if err := c.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	for start := 0; start < len(chunks); start += upsertBatch {
		end := start + upsertBatch
		if end > len(chunks) {
			end = len(chunks)
		}

		points := make([]map[string]any, 0, end-start)
		for i := start; i < end; i++ {
			ch := chunks[i]
			points = append(points, map[string]any{
				"id":     PointID(ch.ID),
				"vector": vectors[i],
				"payload": payload{
					ChunkID:   ch.ID,
					Path:      ch.Path,
					StartLine: ch.StartLine,
					EndLine:   ch.EndLine,
					Text:      ch.Text,
				},
			})
		}

		body := map[string]any{"points": points}
		if err := c.do(ctx, http.MethodPut, c.collectionURL()+"/points?wait=true", body, nil); err != nil {
			return fmt.Errorf("upsert points: %w", err)
		}
	}
	return nil
}

func (c *Corpus) Query(ctx context.Context, text string, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}

	qv, err := c.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(qv) != 1 {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for one query", domain.ErrBackend, len(qv))
	}

	req := map[string]any{
		"vector":       qv[0],
		"limit":        k,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload payload `json:"payload"`
		} `json:"result"`
	}
	err = c.do(ctx, http.MethodPost, c.collectionURL()+"/points/search", req, &resp)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("search points: %w", err)
	}

	results := make([]domain.ScoredChunk, 0, len(resp.Result))
	for _, r := range resp.Result {
		p := r.Payload
		results = append(results, domain.ScoredChunk{
			Chunk: domain.Chunk{
				ID:        p.ChunkID,
				Path:      p.Path,
				StartLine: p.StartLine,
				EndLine:   p.EndLine,
				Text:      p.Text,
			},
			Score: r.Score,
		})
	}
	return results, nil
}

func (c *Corpus) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	err := c.do(ctx, http.MethodPost, c.collectionURL()+"/points/count", map[string]any{"exact": true}, &resp)
	if errors.Is(err, errNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("count points: %w", err)
	}
	return resp.Result.Count, nil
}

func (c *Corpus) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, c.url+"/collections", nil, nil)
}

func (c *Corpus) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return fmt.Errorf("%w: qdrant %s %s: %w", domain.ErrTimeout, method, url, err)
		}
		return fmt.Errorf("%w: qdrant %s %s: %w", domain.ErrBackend, method, url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: qdrant %s %s: %s", domain.ErrAuth, method, url, resp.Status)
	case resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: qdrant %s %s failed: %s %s", domain.ErrBackend, method, url, resp.Status, strings.TrimSpace(string(msg)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode qdrant response: %w", domain.ErrBackend, err)
		}
	}
	return nil
}
