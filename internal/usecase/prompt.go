package usecase

import (
	"fmt"
	"strings"

	"codeqa/internal/domain"
)

const (
	// SentinelAnswer is returned when retrieval found nothing to show the model.
	SentinelAnswer = "No relevant code was found. Please index a codebase first and ensure your question relates to the code."

	// AuthMessage replaces the raw SDK error when credentials are rejected.
	AuthMessage = "API key is invalid or was rejected. For OpenAI use a key from " +
		"https://platform.openai.com/account/api-keys. For OpenRouter set " +
		"OPENAI_BASE_URL=https://openrouter.ai/api/v1 and use your OpenRouter key."

	// NotIndexedMessage is the user-facing form of domain.ErrEmptyCorpus.
	NotIndexedMessage = "No codebase indexed. Index a ZIP or GitHub repo first."
)

const answerSystemPrompt = `You are a code Q&A assistant. Answer using ONLY the provided code snippets. If the answer is not in the snippets, say "I could not find this in the provided code." Cite (file_path, lines X-Y) where relevant.

On the last line of your response write exactly:
CITED: path1 (start-end); path2 (start-end)
List only the snippets you used. Example: CITED: backend/README.md (16-50)`

const refactorSystemPrompt = `You are a refactoring assistant. Using ONLY the provided code snippets, suggest concrete refactors (extract function, rename, simplify). For each: short title, file path and line range, brief description. Be concise.`

// FormatSnippets renders snippets as path and line headers followed by text.
func FormatSnippets(snippets []domain.RetrievedSnippet) string {
	parts := make([]string, 0, len(snippets))
	for _, s := range snippets {
		parts = append(parts, fmt.Sprintf("--- %s (lines %d-%d) ---\n%s", s.Path, s.StartLine, s.EndLine, s.Text))
	}
	return strings.Join(parts, "\n\n")
}

func answerUserPrompt(question string, snippets []domain.RetrievedSnippet) string {
	return "Code snippets:\n\n" + FormatSnippets(snippets) +
		"\n\nQuestion: " + question +
		"\n\nAnswer using only the above snippets. At the end add: CITED: <path (start-end) for each snippet you used>."
}

func refactorUserPrompt(snippets []domain.RetrievedSnippet) string {
	return "Code snippets:\n\n" + FormatSnippets(snippets) +
		"\n\nSuggest 3-5 refactoring improvements with file path and line ranges for each."
}
