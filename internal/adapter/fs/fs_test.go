package fs

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"codeqa/internal/domain"
)

func defaultFilter() *Filter {
	return NewFilter(nil, []string{"**/node_modules/**", "**/*.min.js"}, 1000)
}

func TestIsCodeFile(t *testing.T) {
	tests := map[string]bool{
		"main.go":           true,
		"src/App.TSX":       true,
		"Makefile":          true,
		"docker/Dockerfile": true,
		"README.md":         true,
		"analysis.R":        true,
		"image.png":         false,
		"bin/tool":          false,
		"archive.tar.gz":    false,
		"notes/.hidden.swp": false,
	}
	for p, want := range tests {
		if got := IsCodeFile(p); got != want {
			t.Errorf("IsCodeFile(%q) = %v, want %v", p, got, want)
		}
	}
}

func TestFilterAccept(t *testing.T) {
	f := NewFilter([]string{"src/**"}, []string{"**/vendor/**"}, 0)

	tests := map[string]bool{
		"src/app.go":          true,
		"src/vendor/lib.go":   false,
		"docs/readme.md":      false,
		"src/.git/config.yml": false,
		"src/__MACOSX/a.go":   false,
	}
	for p, want := range tests {
		if got := f.Accept(p); got != want {
			t.Errorf("Accept(%q) = %v, want %v", p, got, want)
		}
	}
}

func TestFilterDecode(t *testing.T) {
	f := NewFilter(nil, nil, 10)

	if _, ok := f.Decode([]byte("   \n\t")); ok {
		t.Error("blank files should be rejected")
	}
	if _, ok := f.Decode([]byte{0xff, 0xfe, 'a'}); ok {
		t.Error("invalid UTF-8 should be rejected")
	}
	if _, ok := f.Decode([]byte("0123456789A")); ok {
		t.Error("oversized files should be rejected")
	}
	if text, ok := f.Decode([]byte("x := 1")); !ok || text != "x := 1" {
		t.Errorf("unexpected decode result %q %v", text, ok)
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestWalker(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "pkg/util.py", "def util(): pass\n")
	writeFile(t, root, "node_modules/dep/index.js", "module.exports = 1\n")
	writeFile(t, root, ".git/HEAD.txt", "ref: refs/heads/main\n")
	writeFile(t, root, "logo.png", "not really a png")
	writeFile(t, root, "empty.md", "  \n")
	writeFile(t, root, "big.txt", strings.Repeat("x", 2000))

	files, err := NewWalker(defaultFilter()).Walk(root)
	if err != nil {
		t.Fatal(err)
	}

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	if strings.Join(paths, ",") != "main.go,pkg/util.py" {
		t.Errorf("unexpected files %v", paths)
	}
	if files[0].Text != "package main\n" {
		t.Errorf("unexpected text %q", files[0].Text)
	}
}

func buildZip(t *testing.T, entries map[string]string, order []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasSuffix(name, "/") {
			if _, err := w.Write([]byte(entries[name])); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoadZip(t *testing.T) {
	entries := map[string]string{
		"./proj/app.go":          "package app\n",
		"proj/":                  "",
		"__MACOSX/proj/._app.go": "junk",
		"proj/.git/config.yml":   "x: 1",
		"proj/lib/helper.ts":     "export const x = 1\n",
		"proj/bin/data.bin":      "\x00\x01",
		"proj/latin1.txt":        "caf\xe9",
	}
	order := []string{"./proj/app.go", "proj/", "__MACOSX/proj/._app.go", "proj/.git/config.yml", "proj/lib/helper.ts", "proj/bin/data.bin", "proj/latin1.txt"}

	files, err := LoadZip(buildZip(t, entries, order), defaultFilter())
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %+v", files)
	}
	if files[0].Path != "proj/app.go" || files[1].Path != "proj/lib/helper.ts" {
		t.Errorf("unexpected paths %q %q", files[0].Path, files[1].Path)
	}
}

func TestLoadZipErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		msg  string
	}{
		{"empty", nil, "Upload is empty or not a valid ZIP file"},
		{"too short", []byte("PK"), "Upload is empty or not a valid ZIP file"},
		{"corrupt", bytes.Repeat([]byte("x"), 64), "Invalid or corrupted ZIP file"},
		{"no code", buildZip(t, map[string]string{"a.png": "img"}, []string{"a.png"}), "ZIP contains no indexable code files"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadZip(tt.data, defaultFilter())
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if err.Error() != tt.msg {
				t.Errorf("message = %q, want %q", err.Error(), tt.msg)
			}
		})
	}
}

func TestValidateGitHubURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"https://github.com/owner/repo", "https://github.com/owner/repo", true},
		{" https://www.github.com/owner/repo.js/ ", "https://www.github.com/owner/repo.js", true},
		{"http://github.com/o-1/r_2?tab=readme", "http://github.com/o-1/r_2", true},
		{"https://github.com/owner", "", false},
		{"https://gitlab.com/owner/repo", "", false},
		{"https://github.com/owner/repo/tree/main", "", false},
		{"git@github.com:owner/repo.git", "", false},
	}

	for _, tt := range tests {
		got, err := ValidateGitHubURL(tt.in)
		if tt.ok && (err != nil || got != tt.want) {
			t.Errorf("ValidateGitHubURL(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
		if !tt.ok && !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("ValidateGitHubURL(%q) should fail, got %q", tt.in, got)
		}
	}
}

func TestClonerLoad(t *testing.T) {
	var cloneDir string
	c := NewCloner(defaultFilter(), time.Second, nil).WithCloneFunc(func(ctx context.Context, url, dir string) ([]byte, error) {
		cloneDir = dir
		writeFile(t, dir, "cmd/main.go", "package main\n")
		writeFile(t, dir, ".git/config.txt", "[core]\n")
		return nil, nil
	})

	files, err := c.Load(context.Background(), "https://github.com/acme/tool/")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Path != "cmd/main.go" {
		t.Errorf("unexpected files %+v", files)
	}
	if _, err := os.Stat(cloneDir); !os.IsNotExist(err) {
		t.Errorf("clone dir %s should be removed", cloneDir)
	}
}

func TestClonerErrors(t *testing.T) {
	tests := []struct {
		name string
		out  string
		msg  string
	}{
		{"not found", "fatal: repository 'https://github.com/a/b/' not found", "Repository not found or not accessible. Ensure it is a public GitHub repo."},
		{"other", "error: RPC failed", "Git clone failed: error: RPC failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCloner(defaultFilter(), time.Second, nil).WithCloneFunc(func(ctx context.Context, url, dir string) ([]byte, error) {
				return []byte(tt.out), errors.New("exit status 128")
			})
			_, err := c.Load(context.Background(), "https://github.com/a/b")
			if !errors.Is(err, domain.ErrInvalidInput) || err.Error() != tt.msg {
				t.Errorf("got %v, want %q", err, tt.msg)
			}
		})
	}

	c := NewCloner(defaultFilter(), time.Second, nil).WithCloneFunc(func(ctx context.Context, url, dir string) ([]byte, error) {
		return nil, nil
	})
	if _, err := c.Load(context.Background(), "https://github.com/a/empty"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("empty repository should be invalid input, got %v", err)
	}
}

func TestClonerTimeout(t *testing.T) {
	c := NewCloner(defaultFilter(), 20*time.Millisecond, nil).WithCloneFunc(func(ctx context.Context, url, dir string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	if _, err := c.Load(context.Background(), "https://github.com/a/slow"); !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}
