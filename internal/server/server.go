package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nao1215/docpointer/internal/config"
	"github.com/nao1215/docpointer/internal/database"
	"github.com/nao1215/docpointer/internal/document"
	"github.com/nao1215/docpointer/internal/extract"
	"github.com/nao1215/docpointer/internal/pattern"
	"github.com/nao1215/docpointer/internal/pipeline"
	"github.com/nao1215/docpointer/internal/storage"
)

// Server timeouts that do not depend on configuration.
const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 60 * time.Second

	// formOverhead is the multipart framing allowed on top of the upload limit.
	formOverhead int64 = 1 << 20
)

// Server serves the extraction API.
// Every request runs its own pipeline (sweep, store, read, extract and,
// with WithHistory, persist) built from the shared collaborators below.
//
// Design decision: the router is the standard library ServeMux with
// method patterns. The API has a handful of fixed routes, and the mux
// answers 405 for a wrong method without extra code.
type Server struct {
	cfg *config.Config

	// store persists uploads and sweeps expired ones.
	store *storage.Store

	// pages turns a stored upload into pages.
	pages pipeline.PageReader

	// extractor answers pointers. It is shared by all requests.
	extractor pipeline.Extractor

	// history is nil unless WithHistory was given.
	history *database.HistoryDB

	logger *slog.Logger

	router *http.ServeMux
	server *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithHistory records every extraction in db and enables the history routes.
func WithHistory(db *database.HistoryDB) Option {
	return func(s *Server) {
		s.history = db
	}
}

// WithPageReader replaces the default document registry.
func WithPageReader(pages pipeline.PageReader) Option {
	return func(s *Server) {
		s.pages = pages
	}
}

// WithExtractor replaces the default extractor.
func WithExtractor(extractor pipeline.Extractor) Option {
	return func(s *Server) {
		s.extractor = extractor
	}
}

// New creates a Server that stores uploads in store.
// Without WithExtractor the server runs the detectors named in
// cfg.Detectors. An invalid selection is logged and every detector is
// used, since Validate has normally rejected it already.
func New(cfg *config.Config, store *storage.Store, opts ...Option) *Server {
	s := &Server{
		cfg:   cfg,
		store: store,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.pages == nil {
		s.pages = document.NewDefaultRegistry(document.WithPDFLogger(s.logger))
	}
	if s.extractor == nil {
		registry, err := pattern.Select(cfg.Detectors...)
		if err != nil {
			s.logger.Warn("invalid detector selection, using all detectors",
				"detectors", cfg.Detectors,
				"error", err,
			)
			registry = pattern.Default()
		}
		s.extractor = extract.New(
			extract.WithRegistry(registry),
			extract.WithWorkers(cfg.Workers),
			extract.WithLogger(s.logger),
		)
	}

	s.router = s.setupRoutes()
	s.server = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      cfg.RequestTimeout + readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}
	return s
}

// Handler returns the routes wrapped in middleware.
func (s *Server) Handler() http.Handler {
	return s.withMiddleware(s.router)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start listens and serves until the server is shut down.
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting",
		"address", s.server.Addr,
		"upload_dir", s.store.Dir(),
		"history", s.history != nil,
	)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

// Run serves until ctx is done, then shuts down within grace.
func (s *Server) Run(ctx context.Context, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), grace)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/extract", s.handleExtract)
	mux.HandleFunc("GET /api/extractions", s.handleListExtractions)
	mux.HandleFunc("GET /api/extractions/{id}", s.handleGetExtraction)
	return mux
}

// newPipeline builds the per-request pipeline.
func (s *Server) newPipeline() *pipeline.Pipeline {
	deps := pipeline.Deps{
		Store:     s.store,
		Pages:     s.pages,
		Extractor: s.extractor,
		Logger:    s.logger,
	}
	if s.history != nil {
		deps.History = s.history
	}
	return pipeline.Build(deps)
}
