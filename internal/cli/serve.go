package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codeqa/internal/adapter/fs"
	"codeqa/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve indexing, question answering, refactor suggestions, health and history
over HTTP. Stops gracefully on SIGINT or SIGTERM.

Endpoints:
  POST /index/zip     multipart field "file"
  POST /index/github  {"repo_url": "..."}
  POST /qa            {"question": "..."}
  POST /refactor
  GET  /health
  GET  /history`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, GetRootDir(), logger)
	if err != nil {
		return err
	}
	defer a.Close()

	hist, err := openHistory(cfg, GetRootDir())
	if err != nil {
		return err
	}
	defer hist.Close()

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	filter := newFilter(cfg)
	srv, err := server.New(server.Options{
		Addr:           addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Indexer:        a.indexer,
		Query:          a.query,
		Refactor:       a.refactor,
		Health:         a.health,
		History:        hist,
		Filter:         filter,
		Cloner:         fs.NewCloner(filter, cfg.CloneTimeout(), logger),
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx)
}
