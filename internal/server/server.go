// Package server provides the HTTP API for Kotae.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kotae-ai/kotae/internal/answer"
	"github.com/kotae-ai/kotae/internal/budget"
	"github.com/kotae-ai/kotae/internal/config"
	"github.com/kotae-ai/kotae/internal/knowledge"
	"github.com/kotae-ai/kotae/internal/storage"
	"github.com/kotae-ai/kotae/internal/summarize"
)

// Server is the HTTP server for the Kotae API.
type Server struct {
	kb         *knowledge.Base
	engine     *answer.Engine
	summarizer *summarize.Summarizer
	store      storage.Store
	governor   *budget.Governor
	estimator  budget.Estimator
	config     *config.Config
	logger     *zap.Logger
	server     *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	kb *knowledge.Base,
	engine *answer.Engine,
	summarizer *summarize.Summarizer,
	store storage.Store,
	governor *budget.Governor,
	estimator budget.Estimator,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		kb:         kb,
		engine:     engine,
		summarizer: summarizer,
		store:      store,
		governor:   governor,
		estimator:  estimator,
		config:     cfg,
		logger:     logger,
	}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/rag/ingest", s.handleIngest)
	r.Post("/api/v1/rag/ask", s.handleAsk)
	r.Post("/api/v1/summarize", s.handleSummarize)
	r.Delete("/api/v1/videos/{id}", s.handleDeleteVideo)
	r.Post("/api/v1/admin/reset", s.handleReset)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
