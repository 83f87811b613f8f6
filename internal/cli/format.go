package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"codeqa/internal/domain"
	"codeqa/internal/usecase"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold).SprintFunc()
	refColor    = color.New(color.FgGreen).SprintFunc()
	warnColor   = color.New(color.FgYellow).SprintFunc()
	errorColor  = color.New(color.FgRed).SprintFunc()
	dimColor    = color.New(color.Faint).SprintFunc()
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// userError replaces internal wording with the message a user can act on.
func userError(err error) error {
	var de *domain.Error
	switch {
	case errors.Is(err, domain.ErrAuth):
		return errors.New(usecase.AuthMessage)
	case errors.As(err, &de):
		return errors.New(de.Msg)
	}
	return err
}

func printSnippets(snippets []domain.RetrievedSnippet) {
	for _, s := range snippets {
		fmt.Printf("%s\n", refColor(fmt.Sprintf("--- %s (lines %d-%d) ---", s.Path, s.StartLine, s.EndLine)))
		fmt.Println(dimColor(s.Text))
		fmt.Println()
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
