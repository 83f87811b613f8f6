package fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"codeqa/internal/domain"
	"codeqa/internal/logging"
)

var githubURLPattern = regexp.MustCompile(`^https?://(?:www\.)?github\.com/[a-zA-Z0-9_.-]+/[a-zA-Z0-9_.-]+/?$`)

// ValidateGitHubURL strips any query string and trailing slash and checks
// the result has the owner/repo shape.
func ValidateGitHubURL(raw string) (string, error) {
	u := strings.TrimSpace(raw)
	if i := strings.Index(u, "?"); i >= 0 {
		u = u[:i]
	}
	u = strings.TrimRight(u, "/")
	if !githubURLPattern.MatchString(u) {
		return "", domain.Invalidf("Invalid GitHub URL. Use format: https://github.com/owner/repo")
	}
	return u, nil
}

// CloneFunc clones url into dir and returns the combined git output.
type CloneFunc func(ctx context.Context, url, dir string) ([]byte, error)

// Cloner shallow-clones public GitHub repositories into a temp dir and
// loads them through a Walker.
type Cloner struct {
	walker  *Walker
	timeout time.Duration
	clone   CloneFunc
	log     *slog.Logger
}

func NewCloner(filter *Filter, timeout time.Duration, log *slog.Logger) *Cloner {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Cloner{walker: NewWalker(filter), timeout: timeout, clone: gitClone, log: logging.OrDiscard(log)}
}

// WithCloneFunc replaces the git invocation, mainly for tests.
func (c *Cloner) WithCloneFunc(fn CloneFunc) *Cloner {
	c.clone = fn
	return c
}

func gitClone(ctx context.Context, url, dir string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", url, dir)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

func (c *Cloner) Load(ctx context.Context, repoURL string) ([]domain.File, error) {
	url, err := ValidateGitHubURL(repoURL)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "codeqa_clone_")
	if err != nil {
		return nil, fmt.Errorf("create clone dir: %w", err)
	}
	defer os.RemoveAll(dir)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	out, err := c.clone(ctx, url, dir)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: git clone of %s exceeded %s", domain.ErrTimeout, url, c.timeout)
		}
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			msg = err.Error()
		}
		if strings.Contains(msg, "fatal:") || strings.Contains(strings.ToLower(msg), "not found") {
			return nil, domain.Invalidf("Repository not found or not accessible. Ensure it is a public GitHub repo.")
		}
		return nil, domain.Invalidf("Git clone failed: %s", msg)
	}
	c.log.Info("cloned repository", "url", url, "duration", time.Since(start))

	files, err := c.walker.Walk(dir)
	if err != nil {
		return nil, fmt.Errorf("walk clone: %w", err)
	}
	if len(files) == 0 {
		return nil, domain.Invalidf("Repository contains no indexable code files")
	}
	return files, nil
}
