// Package server exposes indexing and question answering over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"codeqa/internal/adapter/fs"
	"codeqa/internal/domain"
	"codeqa/internal/logging"
	"codeqa/internal/port"
	"codeqa/internal/usecase"
)

const defaultMaxUploadBytes = 100 << 20

type Options struct {
	Addr           string
	AllowedOrigins []string
	MaxUploadBytes int64

	Indexer  *usecase.IndexUseCase
	Query    *usecase.QueryUseCase
	Refactor *usecase.RefactorUseCase
	Health   *usecase.HealthChecker
	History  port.History
	Filter   *fs.Filter
	Cloner   *fs.Cloner

	Logger *slog.Logger
}

type Server struct {
	opts Options
	log  *slog.Logger
}

func New(opts Options) (*Server, error) {
	if opts.Indexer == nil || opts.Query == nil || opts.Refactor == nil || opts.Health == nil {
		return nil, errors.New("missing use case")
	}
	if opts.History == nil {
		return nil, errors.New("missing History")
	}
	if opts.Filter == nil || opts.Cloner == nil {
		return nil, errors.New("missing file sources")
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	if strings.TrimSpace(opts.Addr) == "" {
		opts.Addr = ":8000"
	}
	return &Server{opts: opts, log: logging.OrDiscard(opts.Logger)}, nil
}

// Handler returns the routed handler wrapped with CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /index/zip", s.handleIndexZip)
	mux.HandleFunc("POST /index/github", s.handleIndexGitHub)
	mux.HandleFunc("POST /qa", s.handleQA)
	mux.HandleFunc("POST /refactor", s.handleRefactor)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /history", s.handleHistory)
	return s.cors(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.Info("http server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info("http server stopped")
	return nil
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && slices.Contains(s.opts.AllowedOrigins, origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResp struct {
	Detail string `json:"detail"`
	Kind   string `json:"kind"`
}

// writeError maps err onto a status code by its domain kind.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.ErrorKind(err)
	status := http.StatusBadGateway
	detail := err.Error()

	switch kind {
	case domain.KindInvalidInput, domain.KindEmptyCorpus:
		status = http.StatusBadRequest
		var de *domain.Error
		if errors.As(err, &de) {
			detail = de.Msg
		}
	case domain.KindAuth:
		status = http.StatusUnauthorized
		detail = usecase.AuthMessage
	case domain.KindTimeout:
		status = http.StatusGatewayTimeout
	}

	if status >= 500 {
		s.log.Error("request failed", "path", r.URL.Path, "kind", kind, "error", err)
	} else {
		s.log.Info("request rejected", "path", r.URL.Path, "kind", kind, "error", err)
	}
	writeJSON(w, status, errorResp{Detail: detail, Kind: kind})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"app": "Codebase Q&A with Proof"})
}

type indexResp struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Chunks  int    `json:"chunks"`
}

func (s *Server) index(w http.ResponseWriter, r *http.Request, files []domain.File) {
	res, err := s.opts.Indexer.Index(r.Context(), files)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, indexResp{Status: "ok", Message: "Indexed", Chunks: res.ChunksCreated})
}

func (s *Server) handleIndexZip(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, domain.Invalidf("Upload exceeds %d bytes", s.opts.MaxUploadBytes))
			return
		}
		s.writeError(w, r, domain.Invalidf("Please upload a ZIP file"))
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".zip") {
		s.writeError(w, r, domain.Invalidf("Please upload a ZIP file"))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, domain.Invalidf("Could not read upload: %v", err))
		return
	}
	if len(data) == 0 {
		s.writeError(w, r, domain.Invalidf("Upload is empty"))
		return
	}

	files, err := fs.LoadZip(data, s.opts.Filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.index(w, r, files)
}

type githubReq struct {
	RepoURL string `json:"repo_url"`
}

func (s *Server) handleIndexGitHub(w http.ResponseWriter, r *http.Request) {
	var req githubReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, domain.Invalidf("invalid json"))
		return
	}
	url, err := fs.ValidateGitHubURL(req.RepoURL)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	files, err := s.opts.Cloner.Load(r.Context(), url)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.index(w, r, files)
}

type qaReq struct {
	Question string `json:"question"`
}

func (s *Server) handleQA(w http.ResponseWriter, r *http.Request) {
	var req qaReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, domain.Invalidf("invalid json"))
		return
	}

	res, err := s.opts.Query.Ask(r.Context(), req.Question)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	entry := domain.HistoryEntry{
		Question:          req.Question,
		Answer:            res.Answer,
		References:        res.References,
		RetrievedSnippets: res.RetrievedSnippets,
	}
	if err := s.opts.History.Add(r.Context(), entry); err != nil {
		s.log.Warn("failed to record history", "error", err)
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRefactor(w http.ResponseWriter, r *http.Request) {
	res, err := s.opts.Refactor.Suggest(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.Health.Check(r.Context()))
}

type historyResp struct {
	History []domain.HistoryEntry `json:"history"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.opts.History.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, historyResp{History: entries})
}
