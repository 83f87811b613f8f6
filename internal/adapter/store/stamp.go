package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"codeqa/config"
)

// FormatVersion identifies the layout of chunk and vector records. Bump it
// whenever storedChunk or the vector encoding changes.
const FormatVersion = 1

var keyStamp = []byte("stamp")

// Stamp describes the index build that produced the stored corpus.
type Stamp struct {
	Format      int       `json:"format"`
	Fingerprint string    `json:"fingerprint"`
	Chunks      int       `json:"chunks"`
	IndexedAt   time.Time `json:"indexed_at"`
}

// Fingerprint hashes the settings that shape stored chunks and vectors.
// Chunk ids and embeddings from a different fingerprint are not comparable.
func Fingerprint(cfg *config.Config) string {
	relevant := struct {
		ChunkSize    int    `json:"chunk_size"`
		ChunkOverlap int    `json:"chunk_overlap"`
		EmbProvider  string `json:"emb_provider"`
		EmbModel     string `json:"emb_model"`
		EmbDimension int    `json:"emb_dimension"`
	}{
		ChunkSize:    cfg.Index.ChunkSize,
		ChunkOverlap: cfg.Index.ChunkOverlap,
		EmbProvider:  cfg.Embedding.Provider,
		EmbModel:     cfg.Embedding.Model,
		EmbDimension: cfg.Embedding.Dimension,
	}

	data, _ := json.Marshal(relevant)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// Stamp returns the recorded stamp, or nil when the corpus was never
// stamped.
func (s *BoltCorpus) Stamp() (*Stamp, error) {
	var st *Stamp
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketMeta).Get(keyStamp)
		if raw == nil {
			return nil
		}
		st = &Stamp{}
		if err := json.Unmarshal(raw, st); err != nil {
			return fmt.Errorf("corrupt index stamp: %w", err)
		}
		return nil
	})
	return st, err
}

// RecordStamp marks the stored corpus as built with cfg. Call it after a
// successful rebuild.
func (s *BoltCorpus) RecordStamp(cfg *config.Config) error {
	s.mu.RLock()
	n := len(s.chunks)
	s.mu.RUnlock()

	data, err := json.Marshal(Stamp{
		Format:      FormatVersion,
		Fingerprint: Fingerprint(cfg),
		Chunks:      n,
		IndexedAt:   time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(keyStamp, data)
	})
}

// Stale reports whether the stored corpus must be rebuilt before it can
// serve cfg, and why. An unstamped corpus is never stale.
func (s *BoltCorpus) Stale(cfg *config.Config) (bool, string, error) {
	st, err := s.Stamp()
	if err != nil || st == nil {
		return false, "", err
	}
	switch {
	case st.Format > FormatVersion:
		return true, fmt.Sprintf("index written by a newer build (format v%d > v%d)", st.Format, FormatVersion), nil
	case st.Format < FormatVersion:
		return true, fmt.Sprintf("index format v%d is outdated (want v%d)", st.Format, FormatVersion), nil
	case st.Fingerprint != Fingerprint(cfg):
		return true, "index configuration changed", nil
	}
	return false, "", nil
}
