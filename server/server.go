// Copyright 2025 Canopy Search
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server exposes the catalog sync HTTP API: triggering sync runs,
// inspecting the sync history ledger, and reading synced products.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/canopysearch/catsync/storage"
	"github.com/canopysearch/catsync/syncrun"
)

// Server is the HTTP front of the sync system. Triggering a sync answers
// 202 with the run id; the run itself executes in the background and its
// outcome is read from the history ledger.
type Server struct {
	orchestrator *syncrun.Orchestrator
	products     storage.ProductRepository
	histories    storage.SyncHistoryRepository
	router       *chi.Mux
	httpServer   *http.Server
	logger       *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithAddr sets the listen address.
// Default is ":8080".
func WithAddr(addr string) Option {
	return func(s *Server) {
		if addr != "" {
			s.httpServer.Addr = addr
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates the HTTP server and mounts its routes.
func New(
	orchestrator *syncrun.Orchestrator,
	products storage.ProductRepository,
	histories storage.SyncHistoryRepository,
	opts ...Option,
) (*Server, error) {
	if orchestrator == nil {
		return nil, ErrOrchestratorRequired
	}
	if products == nil {
		return nil, ErrProductRepositoryRequired
	}
	if histories == nil {
		return nil, ErrHistoryRepositoryRequired
	}

	s := &Server{
		orchestrator: orchestrator,
		products:     products,
		histories:    histories,
		router:       chi.NewRouter(),
		logger:       slog.Default(),
	}
	s.httpServer = &http.Server{
		Addr:              ":8080",
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "http-server")

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	s.router.Post("/sync-products", s.handleSyncProducts)
	s.router.Get("/sync-history", s.handleListSyncHistory)
	s.router.Get("/sync-history/{id}", s.handleGetSyncHistory)
	s.router.Get("/products", s.handleListProducts)
	s.router.Get("/products/{id}", s.handleGetProduct)

	return s, nil
}

// Router returns the mounted route tree, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// ListenAndServe serves HTTP until Shutdown or a listener error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
