// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/slrhub/slrhub/internal/federation"
	"github.com/slrhub/slrhub/internal/platform/config"
	"github.com/slrhub/slrhub/internal/platform/constants"
	"github.com/slrhub/slrhub/internal/platform/middleware"
	"github.com/slrhub/slrhub/internal/review"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here and mount their routes in [NewServer].
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Review handles review lifecycle, query sessions, persisted results
	// and scoring.
	Review *review.Handler

	// Federation handles the federated dry query and the persistence
	// routes that drive the provider wrappers.
	Federation *federation.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(ctx context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, h Handlers) *Server {
	rte := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	rte.Use(middleware.RequestID())
	rte.Use(middleware.StructuredLogger(log))
	rte.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	rte.Use(middleware.RateLimit(ctx))
	rte.Use(middleware.PanicRecovery(log))
	rte.Use(middleware.Authenticate(verifier))
	rte.Use(middleware.CORS(cfg))
	rte.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	rte.Get("/health", h.Liveness)
	rte.Get("/ready", h.Readiness)

	// # Application API
	// Domain-specific route groups mounted under versioned prefix.
	rte.Route("/api/v1", func(api chi.Router) {
		api.Post("/dry_query", h.Federation.DryQuery)

		// Review and federation persistence share the /reviews subtree.
		api.Route("/reviews", func(reviews chi.Router) {
			h.Review.RegisterRoutes(reviews)
			h.Federation.RegisterReviewRoutes(reviews)
		})
	})

	return &Server{
		router: rte,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           rte,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.log.Info("server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the underlying router, primarily for tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}
