package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"codeqa/internal/adapter/chunker"
	"codeqa/internal/adapter/embedding"
	"codeqa/internal/adapter/memstore"
	"codeqa/internal/domain"
)

type fakeCompleter struct {
	mu         sync.Mutex
	reply      string
	err        error
	delay      time.Duration
	calls      int
	lastSystem string
	lastUser   string
}

func (f *fakeCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeCompleter) Ping(ctx context.Context) error { return f.err }
func (f *fakeCompleter) ModelName() string              { return "fake" }

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// scriptedStore records calls and can fail on demand.
type scriptedStore struct {
	mu       sync.Mutex
	chunks   []domain.Chunk
	clearErr error
	addErr   error
	pingErr  error
	addDelay time.Duration
	adds     int
}

func (s *scriptedStore) Clear(ctx context.Context) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	s.mu.Lock()
	s.chunks = nil
	s.mu.Unlock()
	return nil
}

// Add stores chunks in two halves with a pause between them, so an
// unsynchronised reader could observe a partial corpus.
func (s *scriptedStore) Add(ctx context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	s.adds++
	s.mu.Unlock()
	if s.addErr != nil {
		return s.addErr
	}
	half := len(chunks) / 2
	s.mu.Lock()
	s.chunks = append(s.chunks, chunks[:half]...)
	s.mu.Unlock()
	time.Sleep(s.addDelay)
	s.mu.Lock()
	s.chunks = append(s.chunks, chunks[half:]...)
	s.mu.Unlock()
	return nil
}

func (s *scriptedStore) Query(ctx context.Context, text string, k int) ([]domain.ScoredChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ScoredChunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		out = append(out, domain.ScoredChunk{Chunk: c, Score: 1})
	}
	return out, nil
}

func (s *scriptedStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks), nil
}

func (s *scriptedStore) Ping(ctx context.Context) error { return s.pingErr }

var errBoom = errors.New("boom")

func newTestIndexer(t *testing.T, corpus *Corpus) *IndexUseCase {
	t.Helper()
	c, err := chunker.NewLineChunker(80, 10)
	if err != nil {
		t.Fatal(err)
	}
	return NewIndexUseCase(corpus, c, nil)
}

func newMemoryCorpus() *Corpus {
	return NewCorpus(memstore.NewMemoryCorpus(embedding.NewHashEmbedder(128)), nil, nil)
}

var sampleFiles = []domain.File{
	{Path: "auth/login.go", Text: "package auth\n\nfunc Login(user, password string) error {\n\treturn checkPassword(user, password)\n}\n"},
	{Path: "db/conn.go", Text: "package db\n\nfunc Connect(dsn string) (*Conn, error) {\n\treturn open(dsn)\n}\n"},
	{Path: "README.md", Text: "# Service\n\nRun make build to compile.\n"},
}

// switchEmbedder wraps HashEmbedder and fails with err once it is set.
type switchEmbedder struct {
	*embedding.HashEmbedder
	mu  sync.Mutex
	err error
}

func (e *switchEmbedder) fail(err error) {
	e.mu.Lock()
	e.err = err
	e.mu.Unlock()
}

func (e *switchEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	err := e.err
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return e.HashEmbedder.Embed(ctx, texts)
}
