// Package httpapi exposes the knowledge base over an admin HTTP API
// built on chi.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// ErrMissingPorts is returned when a required service is not provided.
var ErrMissingPorts = errors.New("httpapi: document, stage, search and cache services are required")

// Ports aggregates the driving ports the API serves.
type Ports struct {
	Document driving.DocumentService
	Stage    driving.StageService
	Search   driving.SearchService
	Cache    driving.CacheService
}

// Validate ensures all ports are set.
func (p *Ports) Validate() error {
	if p.Document == nil || p.Stage == nil || p.Search == nil || p.Cache == nil {
		return ErrMissingPorts
	}
	return nil
}

// Server is the admin HTTP API.
type Server struct {
	ports     *Ports
	router    chi.Router
	maxUpload int64
}

// Option configures a Server.
type Option func(*Server)

// WithMaxUploadBytes caps multipart request bodies.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// NewServer creates the API server and its routes.
func NewServer(ports *Ports, opts ...Option) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		ports:     ports,
		maxUpload: domain.UploadSettings{MaxSizeMB: domain.DefaultMaxUploadSizeMB}.MaxBytes(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if logger.IsVerbose() {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/files", func(r chi.Router) {
			r.Get("/", s.handleListFiles)
			r.Post("/", s.handleUpload)
			r.Get("/{id}", s.handleGetFile)
			r.Delete("/{id}", s.handleDeleteFile)
			r.Post("/{id}/rechunk", s.handleRechunk)
			r.Put("/{id}/stage", s.handleAssignStage)
			r.Get("/{id}/chunks", s.handleChunks)
		})

		r.Route("/stages", func(r chi.Router) {
			r.Get("/", s.handleListStages)
			r.Post("/", s.handleCreateStage)
			r.Put("/{id}/active", s.handleSetStageActive)
			r.Put("/{id}/name", s.handleRenameStage)
			r.Delete("/{id}", s.handleDeleteStage)
		})

		r.Get("/search", s.handleSearch)
		r.Post("/context", s.handleContext)
		r.Post("/embeddings/regenerate", s.handleRegenerate)
		r.Get("/cache", s.handleCacheStats)
	})

	return r
}

// Run serves the API on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("HTTP API listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serve %s: %w", addr, err)
	}
	return nil
}
