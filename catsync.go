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

// Package catsync wires the product catalog sync system: storage, the
// embedding client, the sync orchestrator, the auto-sync scheduler, and the
// HTTP API.
package catsync

import (
	"log/slog"

	"github.com/canopysearch/catsync/ai"
	"github.com/canopysearch/catsync/ai/openai"
	"github.com/canopysearch/catsync/core"
	"github.com/canopysearch/catsync/scheduler"
	"github.com/canopysearch/catsync/server"
	"github.com/canopysearch/catsync/source"
	"github.com/canopysearch/catsync/storage"
	"github.com/canopysearch/catsync/storage/badgerstore"
	"github.com/canopysearch/catsync/syncrun"
)

// System is the assembled sync service. Construct one with NewSystem, run
// syncs through Orchestrator or the HTTP server, and Close when done.
type System struct {
	backend      *badgerstore.Backend
	products     storage.ProductRepository
	histories    storage.SyncHistoryRepository
	embedder     ai.Embedder
	orchestrator *syncrun.Orchestrator
	scheduler    *scheduler.Scheduler
	logger       *slog.Logger
}

// SystemOption configures a System.
type SystemOption func(*systemOptions)

type systemOptions struct {
	aiConfig         *ai.Config
	embedder         ai.Embedder
	inMemory         bool
	orchestratorOpts []syncrun.Option
}

// WithAIConfig sets the embedding service configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(cfg *ai.Config) SystemOption {
	return func(o *systemOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithEmbedder injects an embedder directly, bypassing the AI config.
func WithEmbedder(embedder ai.Embedder) SystemOption {
	return func(o *systemOptions) {
		o.embedder = embedder
	}
}

// WithInMemoryStorage keeps all data in memory. Intended for tests.
func WithInMemoryStorage() SystemOption {
	return func(o *systemOptions) {
		o.inMemory = true
	}
}

// WithOrchestratorOptions forwards options to the sync orchestrator.
func WithOrchestratorOptions(opts ...syncrun.Option) SystemOption {
	return func(o *systemOptions) {
		o.orchestratorOpts = append(o.orchestratorOpts, opts...)
	}
}

// NewSystem opens storage at filePath and wires the full sync system. The
// field mapping tells the normalizer how to derive canonical product fields
// from raw source records; it applies to every source.
func NewSystem(filePath string, mapping core.FieldMapping, opts ...SystemOption) (*System, error) {
	options := &systemOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badgerstore.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	products := badgerstore.NewProductRepository(backend)
	histories := badgerstore.NewSyncHistoryRepository(backend)

	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	orchestrator, err := syncrun.NewOrchestrator(products, histories, source.NewFactory(),
		embedder, mapping, options.orchestratorOpts...)
	if err != nil {
		backend.Close()
		return nil, err
	}

	sched, err := scheduler.New(orchestrator, slog.Default())
	if err != nil {
		orchestrator.Close()
		backend.Close()
		return nil, err
	}

	return &System{
		backend:      backend,
		products:     products,
		histories:    histories,
		embedder:     embedder,
		orchestrator: orchestrator,
		scheduler:    sched,
		logger:       slog.Default(),
	}, nil
}

// Close stops the scheduler, waits for in-flight runs, and closes storage.
func (s *System) Close() error {
	s.scheduler.Stop()
	s.orchestrator.Close()

	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing storage backend", "err", err)
		return err
	}
	return nil
}

// ProductRepository returns the product catalog repository.
func (s *System) ProductRepository() storage.ProductRepository {
	return s.products
}

// SyncHistoryRepository returns the sync history ledger.
func (s *System) SyncHistoryRepository() storage.SyncHistoryRepository {
	return s.histories
}

// Orchestrator returns the sync run orchestrator.
func (s *System) Orchestrator() *syncrun.Orchestrator {
	return s.orchestrator
}

// Scheduler returns the auto-sync scheduler.
func (s *System) Scheduler() *scheduler.Scheduler {
	return s.scheduler
}

// NewServer creates the HTTP API bound to this system.
func (s *System) NewServer(opts ...server.Option) (*server.Server, error) {
	return server.New(s.orchestrator, s.products, s.histories, opts...)
}
