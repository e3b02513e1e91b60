// Package server exposes the generation pipeline and the network archive
// over a JSON HTTP API.
//
// Routes live under /api/v1. The pipeline endpoints (generate, route,
// compare, render) accept pipeline option documents in the request body;
// zero-valued fields fall back to the same defaults the CLI uses, so the
// API and CLI stay in lockstep. The networks endpoints archive generated
// networks in the configured store.
//
// Liveness is served at /healthz and Prometheus metrics at /metrics.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cityscale/hypertransit/pkg/pipeline"
	"github.com/cityscale/hypertransit/pkg/store"
)

// Options configures a Server.
type Options struct {
	Addr   string
	Runner *pipeline.Runner
	Store  store.Store
	Logger *log.Logger
}

// Server serves the pipeline and the network archive over HTTP.
type Server struct {
	runner *pipeline.Runner
	store  store.Store
	logger *log.Logger

	httpServer *http.Server
}

// New creates a server. A nil runner runs uncached, a nil store falls back
// to in-memory archiving, and an empty addr binds :8080.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Runner == nil {
		opts.Runner = pipeline.NewRunner(nil, nil, opts.Logger)
	}
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore()
	}
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}

	s := &Server{
		runner: opts.Runner,
		store:  opts.Store,
		logger: opts.Logger,
	}
	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler with all API routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Recovery sits outermost so it catches panics from the other
	// middlewares too.
	r.Use(s.recoverPanics)
	r.Use(requestID)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/generate", s.handleGenerate)
		r.Post("/route", s.handleRoute)
		r.Post("/compare", s.handleCompare)
		r.Post("/render", s.handleRender)

		r.Route("/networks", func(r chi.Router) {
			r.Get("/", s.handleListNetworks)
			r.Post("/", s.handleSaveNetwork)
			r.Get("/{id}", s.handleGetNetwork)
			r.Delete("/{id}", s.handleDeleteNetwork)
		})
	})

	return r
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	s.logger.Info("shutting down http server")
	return s.httpServer.Shutdown(shutdownCtx)
}
