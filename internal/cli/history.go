package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent questions and answers",
	Long: `Show recent questions and answers, oldest first. Only the sqlite history
backend keeps entries between runs.`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	h, err := openHistory(GetConfig(), GetRootDir())
	if err != nil {
		return err
	}
	defer h.Close()

	entries, err := h.List(ctx)
	if err != nil {
		return err
	}

	if historyJSON {
		return printJSON(map[string]any{"history": entries})
	}
	if len(entries) == 0 {
		fmt.Println(dimColor("No history yet."))
		return nil
	}
	for i, e := range entries {
		fmt.Printf("%s %s\n", headerColor(fmt.Sprintf("Q%d:", i+1)), e.Question)
		fmt.Println(e.Answer)
		for _, ref := range e.References {
			fmt.Printf("  %s\n", refColor(ref.String()))
		}
		fmt.Println()
	}
	return nil
}
