package fs

import (
	"path"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
)

var codeExtensions = map[string]struct{}{
	".py": {}, ".js": {}, ".ts": {}, ".tsx": {}, ".jsx": {}, ".java": {}, ".go": {},
	".rs": {}, ".rb": {}, ".php": {}, ".c": {}, ".cpp": {}, ".h": {}, ".hpp": {},
	".cs": {}, ".kt": {}, ".swift": {}, ".scala": {}, ".r": {}, ".sql": {},
	".sh": {}, ".bash": {}, ".zsh": {}, ".yaml": {}, ".yml": {}, ".json": {},
	".toml": {}, ".ini": {}, ".md": {}, ".rst": {}, ".txt": {}, ".html": {},
	".css": {}, ".scss": {}, ".vue": {}, ".svelte": {}, ".mjs": {},
}

var codeFileNames = map[string]struct{}{
	"makefile": {}, "dockerfile": {}, "gemfile": {}, "rakefile": {},
}

// IsCodeFile reports whether a path looks like source worth indexing.
func IsCodeFile(p string) bool {
	if _, ok := codeExtensions[strings.ToLower(path.Ext(p))]; ok {
		return true
	}
	_, ok := codeFileNames[strings.ToLower(path.Base(p))]
	return ok
}

// Filter decides which files from any source end up in the corpus. Paths
// are forward-slash and relative to the source root.
type Filter struct {
	includes     []string
	excludes     []string
	maxFileBytes int64
}

func NewFilter(includes, excludes []string, maxFileBytes int64) *Filter {
	return &Filter{includes: includes, excludes: excludes, maxFileBytes: maxFileBytes}
}

// Accept checks the path only; Decode checks the content.
func (f *Filter) Accept(p string) bool {
	if isVCSOrJunk(p) || !IsCodeFile(p) {
		return false
	}
	if len(f.includes) > 0 && !matchAny(f.includes, p) {
		return false
	}
	return !matchAny(f.excludes, p)
}

// SkipDir reports whether a whole directory can be pruned during a walk.
func (f *Filter) SkipDir(dir string) bool {
	base := path.Base(dir)
	if base == ".git" || base == "__MACOSX" {
		return true
	}
	return matchAny(f.excludes, dir+"/")
}

// Decode returns the file's text when it is within the size ceiling, valid
// UTF-8 and not blank.
func (f *Filter) Decode(raw []byte) (string, bool) {
	if f.maxFileBytes > 0 && int64(len(raw)) > f.maxFileBytes {
		return "", false
	}
	if !utf8.Valid(raw) {
		return "", false
	}
	text := string(raw)
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}

func (f *Filter) MaxFileBytes() int64 {
	return f.maxFileBytes
}

func isVCSOrJunk(p string) bool {
	return strings.Contains(p, "__MACOSX") || p == ".git" || strings.HasPrefix(p, ".git/") || strings.Contains(p, "/.git/")
}

func matchAny(patterns []string, p string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, p)
		if err == nil && matched {
			return true
		}
	}
	return false
}
