package analyzer

import (
	"strings"
	"unicode"
)

// Tokenizer splits source text into lowercase terms. Identifiers are kept
// whole and also broken into their camelCase / snake_case parts, so
// "parseHTTPRequest" yields parsehttprequest, parse, http and request.
type Tokenizer struct {
	stopwords map[string]struct{}
}

func NewTokenizer() *Tokenizer {
	return &Tokenizer{stopwords: defaultStopwords()}
}

func (t *Tokenizer) Tokenize(text string) []string {
	words := splitWords(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		whole := strings.ToLower(word)
		t.appendToken(&tokens, whole)

		parts := splitIdentifier(word)
		if len(parts) < 2 {
			continue
		}
		for _, p := range parts {
			if p = strings.ToLower(p); p != whole {
				t.appendToken(&tokens, p)
			}
		}
	}

	return tokens
}

func (t *Tokenizer) appendToken(tokens *[]string, word string) {
	if len(word) < 2 {
		return
	}
	if _, isStop := t.stopwords[word]; isStop {
		return
	}
	*tokens = append(*tokens, word)
}

// CountTokens returns an approximate token count for LLM budget estimation.
func (t *Tokenizer) CountTokens(text string) int {
	words := splitWords(text)
	if len(words) == 0 {
		return 0
	}
	// Rough estimate: average word is about 1.3 tokens
	return int(float64(len(words)) * 1.3)
}

// splitWords splits text into words using unicode word boundaries.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

// splitIdentifier breaks on underscores, lower-to-upper transitions and the
// end of an acronym ("HTTPServer" -> HTTP, Server).
func splitIdentifier(word string) []string {
	var parts []string
	runes := []rune(word)
	start := 0

	flush := func(end int) {
		if end > start {
			parts = append(parts, string(runes[start:end]))
		}
		start = end
	}

	for i, r := range runes {
		if r == '_' {
			flush(i)
			start = i + 1
			continue
		}
		if i == 0 || !unicode.IsUpper(r) {
			continue
		}
		prev := runes[i-1]
		nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
		if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
			flush(i)
		}
	}
	flush(len(runes))

	return parts
}

// defaultStopwords returns common English stopwords plus keywords that
// appear in almost every source file.
func defaultStopwords() map[string]struct{} {
	stops := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "he", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "will", "with", "this",
		"have", "had", "but", "not", "you", "your", "we", "our",
		"they", "their", "she", "her", "his", "if", "or", "so",
		"no", "can", "do", "does", "did", "been", "being", "would",
		"could", "should", "may", "might", "must", "shall", "which",
		"who", "whom", "what", "when", "where", "why", "how", "all",
		"each", "every", "both", "few", "more", "most", "other",
		"some", "such", "than", "too", "very", "just", "also",
		"var", "let", "const", "return", "else", "nil", "null", "none",
		"true", "false", "self",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
