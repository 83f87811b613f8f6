package usecase

import (
	"context"
	"log/slog"
	"time"

	"codeqa/internal/domain"
	"codeqa/internal/logging"
	"codeqa/internal/port"
)

// IndexUseCase chunks a set of files and rebuilds a corpus from them.
type IndexUseCase struct {
	corpus  *Corpus
	chunker port.Chunker
	log     *slog.Logger

	// OnFile, when set, is called after each file is chunked.
	OnFile func(done, total int, path string)
}

func NewIndexUseCase(corpus *Corpus, chunker port.Chunker, log *slog.Logger) *IndexUseCase {
	return &IndexUseCase{corpus: corpus, chunker: chunker, log: logging.OrDiscard(log)}
}

// IndexResult contains the results of an indexing operation.
type IndexResult struct {
	FilesIndexed  int           `json:"files"`
	ChunksCreated int           `json:"chunks"`
	Duration      time.Duration `json:"-"`
}

// Chunks applies the chunker to every file in order and concatenates the
// results.
func (u *IndexUseCase) Chunks(files []domain.File) []domain.Chunk {
	var chunks []domain.Chunk
	for i, f := range files {
		chunks = append(chunks, u.chunker.Chunk(f.Path, f.Text)...)
		if u.OnFile != nil {
			u.OnFile(i+1, len(files), f.Path)
		}
	}
	return chunks
}

// Index replaces the corpus with the chunks of files. When no chunks
// result the existing corpus is left untouched.
func (u *IndexUseCase) Index(ctx context.Context, files []domain.File) (*IndexResult, error) {
	start := time.Now()

	chunks := u.Chunks(files)
	if len(chunks) == 0 {
		return nil, &domain.Error{Kind: domain.ErrEmptyCorpus, Msg: "No indexable code found"}
	}

	if err := u.corpus.Rebuild(ctx, chunks); err != nil {
		return nil, err
	}

	result := &IndexResult{
		FilesIndexed:  len(files),
		ChunksCreated: len(chunks),
		Duration:      time.Since(start),
	}
	u.log.Info("indexed codebase", "files", result.FilesIndexed, "chunks", result.ChunksCreated, "duration", result.Duration)
	return result, nil
}
