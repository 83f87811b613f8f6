package port

import "codeqa/internal/domain"

type Chunker interface {
	Chunk(path, text string) []domain.Chunk
}
