package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"codeqa/internal/domain"
)

var healthJSON bool

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the store and the completion backend",
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
	healthCmd.Flags().BoolVar(&healthJSON, "json", false, "output as JSON")
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(GetConfig(), GetRootDir(), logger)
	if err != nil {
		return err
	}
	defer a.Close()

	report := a.health.Check(ctx)
	if healthJSON {
		return printJSON(report)
	}

	fmt.Printf("Status: %s\n", statusText(report.Status))
	printComponent("backend", report.Backend)
	printComponent("vector_db", report.VectorDB)
	printComponent("llm", report.LLM)
	return nil
}

func printComponent(name string, c domain.ComponentHealth) {
	line := fmt.Sprintf("  %-10s %s  %s", name, statusText(c.Status), c.Message)
	if c.ChunkCount != nil {
		line += fmt.Sprintf(" (%d chunks)", *c.ChunkCount)
	}
	fmt.Println(line)
}

func statusText(status string) string {
	if status == "ok" {
		return refColor(status)
	}
	return errorColor(status)
}
