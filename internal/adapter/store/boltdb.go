package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"go.etcd.io/bbolt"

	"codeqa/internal/adapter/vector"
	"codeqa/internal/domain"
	"codeqa/internal/logging"
	"codeqa/internal/port"
)

var (
	bucketChunks  = []byte("chunks")
	bucketVectors = []byte("vectors")
	bucketMeta    = []byte("meta")
)

// BoltCorpus persists chunks and their embeddings in a single bbolt file.
// Vectors are mirrored in memory and searched by brute force.
type BoltCorpus struct {
	db       *bbolt.DB
	embedder port.Embedder
	log      *slog.Logger

	mu      sync.RWMutex
	chunks  []domain.Chunk
	vectors [][]float32
}

// storedChunk is keyed by an insertion sequence so reloads keep the order
// chunks were indexed in.
type storedChunk struct {
	ID        string `json:"id"`
	Path      string `json:"path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Text      string `json:"text"`
}

func NewBoltCorpus(path string, embedder port.Embedder, log *slog.Logger) (*BoltCorpus, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketChunks, bucketVectors, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &BoltCorpus{db: db, embedder: embedder, log: logging.OrDiscard(log)}
	if err := s.load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}
	return s, nil
}

func (s *BoltCorpus) load() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		vectors := tx.Bucket(bucketVectors)
		return tx.Bucket(bucketChunks).ForEach(func(k, v []byte) error {
			var sc storedChunk
			if err := json.Unmarshal(v, &sc); err != nil {
				return fmt.Errorf("corrupt chunk record %x: %w", k, err)
			}
			var vec []float32
			if raw := vectors.Get(k); raw != nil {
				if err := json.Unmarshal(raw, &vec); err != nil {
					return fmt.Errorf("corrupt vector record %x: %w", k, err)
				}
			}
			s.chunks = append(s.chunks, domain.Chunk{
				ID:        sc.ID,
				Path:      sc.Path,
				StartLine: sc.StartLine,
				EndLine:   sc.EndLine,
				Text:      sc.Text,
			})
			s.vectors = append(s.vectors, vec)
			return nil
		})
	})
}

func (s *BoltCorpus) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Update(resetBuckets); err != nil {
		return fmt.Errorf("clear bolt corpus: %w", err)
	}

	s.chunks = nil
	s.vectors = nil
	return nil
}

func (s *BoltCorpus) Add(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	vectors, err := s.embed(ctx, chunks)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return putChunks(tx, chunks, vectors)
	})
	if err != nil {
		return fmt.Errorf("%w: write chunks: %w", domain.ErrBackend, err)
	}

	s.chunks = append(s.chunks, chunks...)
	s.vectors = append(s.vectors, vectors...)
	s.log.Debug("stored chunks", "added", len(chunks), "total", len(s.chunks))
	return nil
}

// Replace embeds chunks first, then clears and writes them in a single
// transaction. Any failure leaves the previous corpus on disk and in memory.
func (s *BoltCorpus) Replace(ctx context.Context, chunks []domain.Chunk) error {
	var vectors [][]float32
	if len(chunks) > 0 {
		var err error
		if vectors, err = s.embed(ctx, chunks); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := resetBuckets(tx); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrClearFailed, err)
		}
		if err := putChunks(tx, chunks, vectors); err != nil {
			return fmt.Errorf("%w: write chunks: %w", domain.ErrBackend, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.chunks = append([]domain.Chunk(nil), chunks...)
	s.vectors = vectors
	s.log.Debug("replaced chunks", "total", len(s.chunks))
	return nil
}

func (s *BoltCorpus) embed(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for %d chunks", domain.ErrBackend, len(vectors), len(chunks))
	}
	return vectors, nil
}

func resetBuckets(tx *bbolt.Tx) error {
	for _, name := range [][]byte{bucketChunks, bucketVectors} {
		if err := tx.DeleteBucket(name); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		if _, err := tx.CreateBucket(name); err != nil {
			return err
		}
	}
	return nil
}

func putChunks(tx *bbolt.Tx, chunks []domain.Chunk, vectors [][]float32) error {
	cb := tx.Bucket(bucketChunks)
	vb := tx.Bucket(bucketVectors)
	for i, c := range chunks {
		seq, err := cb.NextSequence()
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)

		data, err := json.Marshal(storedChunk{ID: c.ID, Path: c.Path, StartLine: c.StartLine, EndLine: c.EndLine, Text: c.Text})
		if err != nil {
			return err
		}
		if err := cb.Put(key, data); err != nil {
			return err
		}

		vec, err := json.Marshal(vectors[i])
		if err != nil {
			return err
		}
		if err := vb.Put(key, vec); err != nil {
			return err
		}
	}
	return nil
}

func (s *BoltCorpus) Query(ctx context.Context, text string, k int) ([]domain.ScoredChunk, error) {
	s.mu.RLock()
	empty := len(s.chunks) == 0
	s.mu.RUnlock()
	if empty || k <= 0 {
		return nil, nil
	}

	qv, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(qv) != 1 {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for one query", domain.ErrBackend, len(qv))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := vector.TopK(qv[0], s.vectors, k)
	results := make([]domain.ScoredChunk, len(hits))
	for i, h := range hits {
		results[i] = domain.ScoredChunk{Chunk: s.chunks[h.Index], Score: h.Score}
	}
	return results, nil
}

func (s *BoltCorpus) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

func (s *BoltCorpus) Ping(ctx context.Context) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketChunks) == nil {
			return fmt.Errorf("%w: chunks bucket missing", domain.ErrBackend)
		}
		return nil
	})
}

func (s *BoltCorpus) Close() error {
	return s.db.Close()
}
