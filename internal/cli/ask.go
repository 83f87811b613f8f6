package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"codeqa/internal/domain"
)

var (
	askJSON         bool
	askShowSnippets bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about the indexed codebase",
	Long: `Retrieve the most relevant chunks for a question and answer it using only
those chunks. The answer ends with the file and line ranges it relied on.

Examples:
  codeqa ask "how are sessions invalidated?"
  codeqa ask "where is the config loaded" --snippets
  codeqa ask "what does Retry do" --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.Flags().BoolVar(&askShowSnippets, "snippets", false, "print the retrieved snippets")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	question := strings.Join(args, " ")

	a, err := newApp(cfg, GetRootDir(), logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.store.bolt != nil {
		if rebuild, reason, err := a.store.bolt.Stale(cfg); err == nil && rebuild {
			fmt.Printf("%s %s. Run 'codeqa index' again.\n", warnColor("Warning:"), reason)
		}
	}

	res, err := a.query.Ask(ctx, question)
	if err != nil {
		return userError(err)
	}

	if err := recordHistory(ctx, question, res); err != nil {
		logger.Warn("failed to record history", "error", err)
	}

	if askJSON {
		return printJSON(res)
	}

	if res.ErrorKind != "" {
		fmt.Println(errorColor(res.Answer))
	} else {
		fmt.Println(res.Answer)
	}

	if len(res.References) > 0 {
		fmt.Printf("\n%s\n", headerColor("References:"))
		for _, ref := range res.References {
			fmt.Printf("  %s\n", refColor(ref.String()))
		}
	}

	if askShowSnippets && len(res.RetrievedSnippets) > 0 {
		fmt.Printf("\n%s\n\n", headerColor("Retrieved snippets:"))
		printSnippets(res.RetrievedSnippets)
	}
	return nil
}

func recordHistory(ctx context.Context, question string, res domain.AnswerResult) error {
	h, err := openHistory(GetConfig(), GetRootDir())
	if err != nil {
		return err
	}
	defer h.Close()

	return h.Add(ctx, domain.HistoryEntry{
		Question:          question,
		Answer:            res.Answer,
		References:        res.References,
		RetrievedSnippets: res.RetrievedSnippets,
	})
}
