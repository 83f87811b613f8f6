// Package citation parses the trailing CITED: line a model appends to its
// answer and decides which references the caller should trust.
package citation

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"codeqa/internal/domain"
)

const marker = "CITED:"

// Reconcile splits raw model output into answer text and references. When
// the CITED: payload yields at least one entry those entries replace
// defaults and the CITED: block is cut from the answer. Otherwise raw is
// returned untouched together with defaults.
func Reconcile(raw string, defaults []domain.CitationReference) (string, []domain.CitationReference) {
	answer, payload, ok := splitCited(raw)
	if !ok {
		return raw, defaults
	}

	refs := ParseEntries(payload)
	if len(refs) == 0 {
		return raw, defaults
	}
	return answer, refs
}

// splitCited finds the last line starting with CITED: (case-insensitive,
// leading whitespace allowed). The payload runs to the next blank line or
// the end of text.
func splitCited(raw string) (answer, payload string, ok bool) {
	lines := strings.Split(raw, "\n")

	at := -1
	for i := len(lines) - 1; i >= 0; i-- {
		if hasMarker(lines[i]) {
			at = i
			break
		}
	}
	if at < 0 {
		return "", "", false
	}

	first := strings.TrimLeftFunc(lines[at], unicode.IsSpace)[len(marker):]
	parts := []string{first}
	for _, l := range lines[at+1:] {
		if strings.TrimSpace(l) == "" {
			break
		}
		parts = append(parts, l)
	}

	answer = strings.TrimRightFunc(strings.Join(lines[:at], "\n"), unicode.IsSpace)
	return answer, strings.Join(parts, "\n"), true
}

func hasMarker(line string) bool {
	line = strings.TrimLeftFunc(line, unicode.IsSpace)
	return len(line) >= len(marker) && strings.EqualFold(line[:len(marker)], marker)
}

// ParseEntries reads `path (start-end)` entries separated by ';' or line
// breaks. Malformed entries are skipped. An entry may hold more than one
// reference, e.g. `a.go (1-2) b.go (3-4)`.
func ParseEntries(payload string) []domain.CitationReference {
	var refs []domain.CitationReference
	entries := strings.FieldsFunc(payload, func(r rune) bool { return r == ';' || r == '\n' || r == '\r' })
	for _, entry := range entries {
		refs = append(refs, parseEntry(entry)...)
	}
	return refs
}

func parseEntry(entry string) []domain.CitationReference {
	var refs []domain.CitationReference
	from := 0
	for i := 0; i < len(entry); i++ {
		if entry[i] != '(' {
			continue
		}
		start, end, next, ok := parseRange(entry, i+1)
		if !ok {
			continue
		}
		path := cleanPath(entry[from:i])
		from = next
		i = next - 1
		if path == "" {
			continue
		}
		refs = append(refs, domain.CitationReference{Path: path, StartLine: start, EndLine: end})
	}
	return refs
}

// parseRange matches `ws digits ws sep ws digits ws )` at s[i:] and returns
// the offset just past the closing parenthesis.
func parseRange(s string, i int) (start, end, next int, ok bool) {
	i = skipSpace(s, i)
	start, i, ok = readInt(s, i)
	if !ok {
		return 0, 0, 0, false
	}
	i = skipSpace(s, i)
	r, size := utf8.DecodeRuneInString(s[i:])
	if r != '-' && r != '–' {
		return 0, 0, 0, false
	}
	i = skipSpace(s, i+size)
	end, i, ok = readInt(s, i)
	if !ok {
		return 0, 0, 0, false
	}
	i = skipSpace(s, i)
	if i >= len(s) || s[i] != ')' {
		return 0, 0, 0, false
	}
	return start, end, i + 1, true
}

func readInt(s string, i int) (int, int, bool) {
	j := i
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j == i {
		return 0, i, false
	}
	n, err := strconv.Atoi(s[i:j])
	if err != nil {
		return 0, i, false
	}
	return n, j, true
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}

func cleanPath(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'`")
	return strings.TrimSpace(s)
}
