package domain

import "fmt"

// File is a decoded source file with a forward-slash relative path.
type File struct {
	Path string
	Text string
}

// Chunk is a line-addressed window of a file. Line numbers are 1-based,
// inclusive and refer to the original file.
type Chunk struct {
	ID        string
	Path      string
	StartLine int
	EndLine   int
	Text      string
}

// ChunkID derives the stable identifier of a chunk.
func ChunkID(path string, startLine, endLine int) string {
	return fmt.Sprintf("%s:%d:%d", path, startLine, endLine)
}

type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// RetrievedSnippet is a chunk as it comes back from the store.
type RetrievedSnippet struct {
	Path      string `json:"file_path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Text      string `json:"text"`
}

// CitationReference points into the corpus without carrying text.
type CitationReference struct {
	Path      string `json:"file_path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

func (r CitationReference) String() string {
	return fmt.Sprintf("%s (%d-%d)", r.Path, r.StartLine, r.EndLine)
}

// ReferencesFor derives one reference per snippet, in order.
func ReferencesFor(snippets []RetrievedSnippet) []CitationReference {
	refs := make([]CitationReference, 0, len(snippets))
	for _, s := range snippets {
		refs = append(refs, CitationReference{Path: s.Path, StartLine: s.StartLine, EndLine: s.EndLine})
	}
	return refs
}

type AnswerResult struct {
	Answer            string              `json:"answer"`
	References        []CitationReference `json:"references"`
	RetrievedSnippets []RetrievedSnippet  `json:"retrieved_snippets"`
	// ErrorKind is set when generation failed and Answer carries the error text.
	ErrorKind string `json:"error_kind,omitempty"`
}

type HistoryEntry struct {
	Question          string              `json:"question"`
	Answer            string              `json:"answer"`
	References        []CitationReference `json:"references"`
	RetrievedSnippets []RetrievedSnippet  `json:"retrieved_snippets"`
}

type RefactorSuggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Path        string `json:"file_path"`
	StartLine   int    `json:"start_line"`
	EndLine     int    `json:"end_line"`
}

type RefactorResult struct {
	Suggestions       []RefactorSuggestion `json:"suggestions"`
	RetrievedSnippets []RetrievedSnippet   `json:"retrieved_snippets"`
	Message           string               `json:"message"`
}

type ComponentHealth struct {
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	ChunkCount *int   `json:"chunk_count,omitempty"`
}

type HealthReport struct {
	Status   string          `json:"status"`
	Backend  ComponentHealth `json:"backend"`
	VectorDB ComponentHealth `json:"vector_db"`
	LLM      ComponentHealth `json:"llm"`
}
