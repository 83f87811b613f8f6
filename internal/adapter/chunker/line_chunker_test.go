package chunker

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"codeqa/internal/domain"
)

func mustChunker(t *testing.T, size, overlap int) *LineChunker {
	t.Helper()
	c, err := NewLineChunker(size, overlap)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestLineChunkerBasic(t *testing.T) {
	chunker := mustChunker(t, 50, 10)

	content := `package main

import "fmt"

func main() {
    fmt.Println("Hello, World!")
}

func helper() {
    // some helper function
    return
}`

	chunks := chunker.Chunk("cmd/main.go", content)
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}

	for _, chunk := range chunks {
		if chunk.Path != "cmd/main.go" {
			t.Errorf("expected path 'cmd/main.go', got '%s'", chunk.Path)
		}
		if chunk.StartLine < 1 {
			t.Errorf("invalid StartLine: %d", chunk.StartLine)
		}
		if chunk.EndLine < chunk.StartLine {
			t.Errorf("EndLine (%d) < StartLine (%d)", chunk.EndLine, chunk.StartLine)
		}
		want := fmt.Sprintf("cmd/main.go:%d:%d", chunk.StartLine, chunk.EndLine)
		if chunk.ID != want {
			t.Errorf("expected ID %s, got %s", want, chunk.ID)
		}
	}
}

func TestLineChunkerExactWindows(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		content string
		want    []domain.Chunk
	}{
		{
			name:    "overlap carries one line",
			size:    10,
			overlap: 3,
			content: "aaaa\nbbbb\ncccc\ndddd\n",
			want: []domain.Chunk{
				{ID: "f.txt:1:2", Path: "f.txt", StartLine: 1, EndLine: 2, Text: "aaaa\nbbbb"},
				{ID: "f.txt:2:3", Path: "f.txt", StartLine: 2, EndLine: 3, Text: "bbbb\ncccc"},
				{ID: "f.txt:3:4", Path: "f.txt", StartLine: 3, EndLine: 4, Text: "cccc\ndddd"},
			},
		},
		{
			name:    "zero overlap still carries the last line",
			size:    10,
			overlap: 0,
			content: "aaaa\nbbbb\ncccc\ndddd\n",
			want: []domain.Chunk{
				{ID: "f.txt:1:2", Path: "f.txt", StartLine: 1, EndLine: 2, Text: "aaaa\nbbbb"},
				{ID: "f.txt:2:3", Path: "f.txt", StartLine: 2, EndLine: 3, Text: "bbbb\ncccc"},
				{ID: "f.txt:3:4", Path: "f.txt", StartLine: 3, EndLine: 4, Text: "cccc\ndddd"},
			},
		},
		{
			name:    "remainder below chunk size",
			size:    10,
			overlap: 0,
			content: "aaaa\nbbbb\ncc",
			want: []domain.Chunk{
				{ID: "f.txt:1:2", Path: "f.txt", StartLine: 1, EndLine: 2, Text: "aaaa\nbbbb"},
				{ID: "f.txt:2:3", Path: "f.txt", StartLine: 2, EndLine: 3, Text: "bbbb\ncc"},
			},
		},
		{
			name:    "small file is one chunk",
			size:    800,
			overlap: 100,
			content: "x := 1\ny := 2\n",
			want: []domain.Chunk{
				{ID: "f.txt:1:2", Path: "f.txt", StartLine: 1, EndLine: 2, Text: "x := 1\ny := 2"},
			},
		},
		{
			name:    "size counts bytes not characters",
			size:    7,
			overlap: 0,
			content: "héllo\nwörld",
			want: []domain.Chunk{
				{ID: "f.txt:1:1", Path: "f.txt", StartLine: 1, EndLine: 1, Text: "héllo"},
				{ID: "f.txt:2:2", Path: "f.txt", StartLine: 2, EndLine: 2, Text: "wörld"},
			},
		},
		{
			name:    "oversized line stands alone",
			size:    5,
			overlap: 2,
			content: "abcdefgh\nij",
			want: []domain.Chunk{
				{ID: "f.txt:1:1", Path: "f.txt", StartLine: 1, EndLine: 1, Text: "abcdefgh"},
				{ID: "f.txt:2:2", Path: "f.txt", StartLine: 2, EndLine: 2, Text: "ij"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustChunker(t, tt.size, tt.overlap).Chunk("f.txt", tt.content)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("chunks mismatch\n got: %+v\nwant: %+v", got, tt.want)
			}
		})
	}
}

func TestLineChunkerEmptyContent(t *testing.T) {
	chunker := mustChunker(t, 50, 10)

	if chunks := chunker.Chunk("empty.go", ""); len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty content, got %d", len(chunks))
	}
}

func TestLineChunkerSingleLine(t *testing.T) {
	chunker := mustChunker(t, 50, 10)

	content := "Just a single line of code"

	chunks := chunker.Chunk("single.go", content)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for single line, got %d", len(chunks))
	}

	if chunks[0].Text != content {
		t.Errorf("expected chunk text to match content")
	}

	if chunks[0].StartLine != 1 || chunks[0].EndLine != 1 {
		t.Errorf("expected lines 1-1, got %d-%d", chunks[0].StartLine, chunks[0].EndLine)
	}
}

func TestLineChunkerRejectsBadParameters(t *testing.T) {
	tests := []struct{ size, overlap int }{
		{0, 0},
		{-5, 0},
		{10, -1},
		{10, 10},
		{10, 20},
	}
	for _, tt := range tests {
		if _, err := NewLineChunker(tt.size, tt.overlap); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("NewLineChunker(%d, %d): expected ErrInvalidInput, got %v", tt.size, tt.overlap, err)
		}
	}
}

func sampleLines(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		// Lengths cycle through 0..12 so windows see empty and long lines.
		lines[i] = strings.Repeat(string(rune('a'+i%26)), (i*7)%13)
	}
	return lines
}

func TestLineChunkerCoverageProperties(t *testing.T) {
	for _, n := range []int{1, 2, 7, 40} {
		lines := sampleLines(n)
		content := strings.Join(lines, "\n") + "\n"

		for size := 1; size <= 30; size++ {
			for overlap := 0; overlap < size; overlap++ {
				chunks := mustChunker(t, size, overlap).Chunk("p.go", content)
				name := fmt.Sprintf("n=%d size=%d overlap=%d", n, size, overlap)

				if len(chunks) == 0 {
					t.Fatalf("%s: no chunks", name)
				}
				if chunks[0].StartLine != 1 {
					t.Errorf("%s: first chunk starts at %d", name, chunks[0].StartLine)
				}
				if last := chunks[len(chunks)-1]; last.EndLine != n {
					t.Errorf("%s: last chunk ends at %d, want %d", name, last.EndLine, n)
				}

				ids := make(map[string]bool)
				for i, c := range chunks {
					if c.EndLine < c.StartLine {
						t.Errorf("%s: chunk %d has end %d < start %d", name, i, c.EndLine, c.StartLine)
					}
					if want := strings.Join(lines[c.StartLine-1:c.EndLine], "\n"); c.Text != want {
						t.Errorf("%s: chunk %d text does not match lines %d-%d", name, i, c.StartLine, c.EndLine)
					}
					if ids[c.ID] {
						t.Errorf("%s: duplicate chunk ID %s", name, c.ID)
					}
					ids[c.ID] = true

					if i == 0 {
						continue
					}
					prev := chunks[i-1]
					if c.StartLine <= prev.StartLine {
						t.Errorf("%s: start lines not increasing (%d then %d)", name, prev.StartLine, c.StartLine)
					}
					if c.StartLine > prev.EndLine+1 {
						t.Errorf("%s: gap between %d and %d", name, prev.EndLine, c.StartLine)
					}
				}
			}
		}
	}
}

func TestLineChunkerDeterministic(t *testing.T) {
	content := strings.Join(sampleLines(60), "\n")
	chunker := mustChunker(t, 40, 12)

	first := chunker.Chunk("d.go", content)
	for i := 0; i < 5; i++ {
		if again := chunker.Chunk("d.go", content); !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d produced different chunks", i)
		}
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a\n", []string{"a"}},
		{"a\n\nb", []string{"a", "", "b"}},
		{"a\r\nb\r\n", []string{"a", "b"}},
		{"a\rb", []string{"a", "b"}},
		{"\n", []string{""}},
	}

	for _, tt := range tests {
		if got := SplitLines(tt.input); !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("SplitLines(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
