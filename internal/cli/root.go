package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"codeqa/config"
	"codeqa/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "codeqa",
	Short: "Codebase Q&A with proof - ask questions about code and get cited answers",
	Long: `codeqa indexes a codebase into overlapping line-addressed chunks, retrieves
the most relevant ones for a question and asks a language model to answer
using only those chunks. Every answer carries file and line citations.

Example usage:
  codeqa index .                                 # Index current directory
  codeqa index --github https://github.com/o/r   # Index a public GitHub repo
  codeqa ask "where is the retry policy set?"    # Ask a question
  codeqa serve                                   # Start the HTTP API`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg.ApplyEnv(os.Getenv)
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err = logging.New(os.Stderr, cfg.Logging.Format, cfg.Logging.Level)
		if err != nil {
			return err
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./codeqa.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "data directory holding .codeqa (default is current directory)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
