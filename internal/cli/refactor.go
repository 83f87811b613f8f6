package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var refactorJSON bool

var refactorCmd = &cobra.Command{
	Use:   "refactor",
	Short: "Suggest refactors for the indexed codebase",
	RunE:  runRefactor,
}

func init() {
	rootCmd.AddCommand(refactorCmd)
	refactorCmd.Flags().BoolVar(&refactorJSON, "json", false, "output as JSON")
}

func runRefactor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(GetConfig(), GetRootDir(), logger)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.refactor.Suggest(ctx)
	if err != nil {
		return userError(err)
	}

	if refactorJSON {
		return printJSON(res)
	}

	if res.Message != "" {
		fmt.Println(warnColor(res.Message))
		return nil
	}
	for _, s := range res.Suggestions {
		title := headerColor(s.Title)
		if s.Title == "Error" {
			title = errorColor(s.Title)
		}
		fmt.Printf("%s\n\n%s\n", title, s.Description)
	}
	fmt.Printf("\n%s\n", dimColor(fmt.Sprintf("Based on %d snippets", len(res.RetrievedSnippets))))
	return nil
}
