package chunker

import (
	"fmt"
	"strings"

	"codeqa/internal/domain"
)

// LineChunker splits text into overlapping windows of whole lines. A window
// is closed once its estimated size (sum of len(line)+1) reaches chunkSize.
type LineChunker struct {
	chunkSize int
	overlap   int
}

func NewLineChunker(chunkSize, overlap int) (*LineChunker, error) {
	if chunkSize < 1 {
		return nil, fmt.Errorf("%w: chunk size must be at least 1, got %d", domain.ErrInvalidInput, chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must not be negative, got %d", domain.ErrInvalidInput, overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("%w: chunk overlap (%d) must be smaller than chunk size (%d)", domain.ErrInvalidInput, overlap, chunkSize)
	}
	return &LineChunker{chunkSize: chunkSize, overlap: overlap}, nil
}

func (c *LineChunker) Chunk(path, text string) []domain.Chunk {
	lines := SplitLines(text)
	if len(lines) == 0 {
		return nil
	}

	var chunks []domain.Chunk
	startLine := 1
	var window []string
	size := 0
	fresh := 0

	for i, line := range lines {
		lineNum := i + 1
		window = append(window, line)
		size += len(line) + 1
		fresh++

		if size < c.chunkSize {
			continue
		}

		chunks = append(chunks, newChunk(path, startLine, lineNum, window))

		carry := c.carryOver(window)
		window = append([]string(nil), window[len(window)-carry:]...)
		startLine = lineNum - carry + 1
		size = windowSize(window)
		fresh = 0
	}

	if fresh > 0 {
		chunks = append(chunks, newChunk(path, startLine, len(lines), window))
	}

	return chunks
}

// carryOver returns how many trailing lines of window seed the next one.
// At least one line is carried, even with zero overlap. The window's first
// line is never carried, so start lines always advance.
func (c *LineChunker) carryOver(window []string) int {
	n, acc := 0, 0
	for n < len(window)-1 && (n == 0 || acc < c.overlap) {
		acc += len(window[len(window)-1-n]) + 1
		n++
	}
	return n
}

func windowSize(window []string) int {
	size := 0
	for _, line := range window {
		size += len(line) + 1
	}
	return size
}

func newChunk(path string, startLine, endLine int, window []string) domain.Chunk {
	return domain.Chunk{
		ID:        domain.ChunkID(path, startLine, endLine),
		Path:      path,
		StartLine: startLine,
		EndLine:   endLine,
		Text:      strings.Join(window, "\n"),
	}
}

// SplitLines splits on \n, \r\n and \r. A trailing line break does not
// produce an empty final line.
func SplitLines(text string) []string {
	var lines []string
	for len(text) > 0 {
		i := strings.IndexAny(text, "\r\n")
		if i < 0 {
			lines = append(lines, text)
			break
		}
		lines = append(lines, text[:i])
		if text[i] == '\r' && i+1 < len(text) && text[i+1] == '\n' {
			i++
		}
		text = text[i+1:]
	}
	return lines
}
