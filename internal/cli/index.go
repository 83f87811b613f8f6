package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"codeqa/internal/adapter/fs"
	"codeqa/internal/domain"
)

var (
	indexZip    string
	indexGitHub string
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a codebase for question answering",
	Long: `Index a directory, a ZIP archive or a public GitHub repository. Every run
replaces the previous index. With the bolt backend the index is stored in
.codeqa/index.db within the data directory.

Examples:
  codeqa index .                                    # Index current directory
  codeqa index --zip project.zip                    # Index a ZIP archive
  codeqa index --github https://github.com/o/repo   # Clone and index`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().StringVar(&indexZip, "zip", "", "index the code files in a ZIP archive")
	indexCmd.Flags().StringVar(&indexGitHub, "github", "", "clone and index a public GitHub repository")
	indexCmd.MarkFlagsMutuallyExclusive("zip", "github")
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	files, source, err := loadSource(ctx, args)
	if err != nil {
		return userError(err)
	}

	a, err := newApp(cfg, GetRootDir(), logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.store.bolt != nil {
		stale, reason, err := a.store.bolt.Stale(cfg)
		if err != nil {
			return fmt.Errorf("failed to read index stamp: %w", err)
		}
		if stale {
			fmt.Printf("%s %s, rebuilding from scratch\n", warnColor("Index rebuild required:"), reason)
		}
	}

	fmt.Printf("Indexing %d files from %s...\n", len(files), source)

	var bar *progressbar.ProgressBar
	if len(files) > 0 {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("[cyan]Chunking[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				fmt.Println()
			}),
		)
		a.indexer.OnFile = func(done, total int, path string) {
			_ = bar.Set(done)
		}
	}

	result, err := a.indexer.Index(ctx, files)
	if err != nil {
		return userError(err)
	}

	if a.store.bolt != nil {
		if err := a.store.bolt.RecordStamp(cfg); err != nil {
			return fmt.Errorf("failed to record index stamp: %w", err)
		}
	}

	fmt.Printf("\n%s\n", headerColor("Indexing complete:"))
	fmt.Printf("  Files indexed:  %d\n", result.FilesIndexed)
	fmt.Printf("  Chunks created: %d\n", result.ChunksCreated)
	fmt.Printf("  Duration:       %s\n", formatDuration(result.Duration))
	return nil
}

// loadSource reads files from the ZIP, GitHub or directory source selected
// by flags and args.
func loadSource(ctx context.Context, args []string) ([]domain.File, string, error) {
	cfg := GetConfig()
	filter := newFilter(cfg)

	switch {
	case indexZip != "":
		data, err := os.ReadFile(indexZip)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", indexZip, err)
		}
		files, err := fs.LoadZip(data, filter)
		return files, indexZip, err

	case indexGitHub != "":
		cloner := fs.NewCloner(filter, cfg.CloneTimeout(), logger)
		start := time.Now()
		files, err := cloner.Load(ctx, indexGitHub)
		if err == nil {
			logger.Debug("clone finished", "url", indexGitHub, "duration", time.Since(start))
		}
		return files, indexGitHub, err
	}

	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return nil, "", fmt.Errorf("invalid path: %w", err)
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return nil, "", fmt.Errorf("path is not a directory: %s", path)
	}

	files, err := fs.NewWalker(filter).Walk(path)
	return files, path, err
}
