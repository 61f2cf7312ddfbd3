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

package syncrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/time/rate"

	"github.com/canopysearch/catsync/ai"
	"github.com/canopysearch/catsync/core"
	"github.com/canopysearch/catsync/normalize"
	"github.com/canopysearch/catsync/source"
	"github.com/canopysearch/catsync/storage"
)

const (
	// defaultStepTimeout bounds one attempt of the fetch and upsert steps.
	defaultStepTimeout = 30 * time.Minute
	// defaultFinalizeTimeout bounds one attempt of the finalize step.
	defaultFinalizeTimeout = 5 * time.Minute
	// defaultRunTimeout bounds the whole run. Expiry still records FAILED.
	defaultRunTimeout = 3 * time.Minute
	// defaultRateLimit throttles embedding calls per second.
	defaultRateLimit = rate.Limit(10)

	retryMaxAttempts = 3
	retryBaseDelay   = time.Second
	retryMaxDelay    = 5 * time.Minute
)

// Orchestrator executes product sync runs: fetch and normalize records from
// the configured source, upsert them into the catalog, and finalize the
// run's history row. Every step retries with exponential backoff and runs
// under its own per-attempt timeout; the run as a whole runs under an
// overall timeout whose expiry still best-effort records the run as FAILED.
type Orchestrator struct {
	products   storage.ProductRepository
	histories  storage.SyncHistoryRepository
	adapters   *source.Factory
	normalizer *normalize.Normalizer
	processor  *recordProcessor
	pool       *ants.Pool
	limiter    *rate.Limiter
	logger     *slog.Logger

	stepTimeout     time.Duration
	finalizeTimeout time.Duration
	runTimeout      time.Duration
	maxAttempts     int
	baseDelay       time.Duration
	maxDelay        time.Duration

	runs sync.WaitGroup
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithPoolSize sets the worker pool size for per-record embedding work.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(o *Orchestrator) error {
		if size < 1 {
			size = 1
		}
		if o.pool != nil {
			o.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		o.pool = pool
		return nil
	}
}

// WithRateLimit sets the embedding calls permitted per second.
// Default is 10.
func WithRateLimit(perSecond float64) Option {
	return func(o *Orchestrator) error {
		if perSecond <= 0 {
			return fmt.Errorf("rate limit must be greater than 0, got %v", perSecond)
		}
		o.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		return nil
	}
}

// WithRunTimeout sets the overall run timeout.
// Default is 3 minutes.
func WithRunTimeout(d time.Duration) Option {
	return func(o *Orchestrator) error {
		if d > 0 {
			o.runTimeout = d
		}
		return nil
	}
}

// WithStepTimeout sets the per-attempt timeout of the fetch and upsert steps.
// Default is 30 minutes.
func WithStepTimeout(d time.Duration) Option {
	return func(o *Orchestrator) error {
		if d > 0 {
			o.stepTimeout = d
		}
		return nil
	}
}

// WithRetryPolicy sets the retry policy applied to every step.
// Defaults are 3 attempts, 1 second base delay, 5 minute cap.
func WithRetryPolicy(maxAttempts int, baseDelay, maxDelay time.Duration) Option {
	return func(o *Orchestrator) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		o.maxAttempts = maxAttempts
		o.baseDelay = baseDelay
		o.maxDelay = maxDelay
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// NewOrchestrator creates a sync run orchestrator. The field mapping tells
// the normalizer how to derive canonical product fields from raw records.
func NewOrchestrator(
	products storage.ProductRepository,
	histories storage.SyncHistoryRepository,
	adapters *source.Factory,
	embedder ai.Embedder,
	mapping core.FieldMapping,
	opts ...Option,
) (*Orchestrator, error) {
	if products == nil {
		return nil, ErrProductRepositoryRequired
	}
	if histories == nil {
		return nil, ErrHistoryRepositoryRequired
	}
	if adapters == nil {
		return nil, ErrAdapterFactoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	normalizer, err := normalize.NewNormalizer(mapping)
	if err != nil {
		return nil, err
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		products:        products,
		histories:       histories,
		adapters:        adapters,
		normalizer:      normalizer,
		pool:            pool,
		limiter:         rate.NewLimiter(defaultRateLimit, 1),
		logger:          slog.Default(),
		stepTimeout:     defaultStepTimeout,
		finalizeTimeout: defaultFinalizeTimeout,
		runTimeout:      defaultRunTimeout,
		maxAttempts:     retryMaxAttempts,
		baseDelay:       retryBaseDelay,
		maxDelay:        retryMaxDelay,
	}

	for _, opt := range opts {
		if optErr := opt(o); optErr != nil {
			o.pool.Release()
			return nil, optErr
		}
	}

	// Create the processor after options so it sees the final pool/limiter.
	o.processor = newRecordProcessor(normalizer, products, embedder, o.pool, o.limiter, o.logger)

	return o, nil
}

// Begin validates the request, appends a PROCESSING history row, and
// launches the run in the background. It returns the run id immediately;
// callers poll the history ledger for the outcome.
func (o *Orchestrator) Begin(ctx context.Context, req *core.SyncRequest) (string, error) {
	if err := core.ValidateSyncRequest(req); err != nil {
		return "", err
	}

	history, err := o.createHistory(ctx, req.SourceConfig.Source)
	if err != nil {
		return "", err
	}

	o.runs.Add(1)
	go func() {
		defer o.runs.Done()
		o.execute(history.ID, req)
	}()

	return history.ID, nil
}

// Run validates the request and executes the run to completion, returning
// the finalized history row. Failed runs return the row with status FAILED
// and a nil error; the error return covers runs that could not start.
func (o *Orchestrator) Run(ctx context.Context, req *core.SyncRequest) (*core.SyncHistory, error) {
	if err := core.ValidateSyncRequest(req); err != nil {
		return nil, err
	}

	history, err := o.createHistory(ctx, req.SourceConfig.Source)
	if err != nil {
		return nil, err
	}

	return o.execute(history.ID, req), nil
}

// Close waits for in-flight runs and releases the worker pool.
func (o *Orchestrator) Close() {
	o.runs.Wait()
	o.pool.Release()
}

func (o *Orchestrator) createHistory(ctx context.Context, s core.Source) (*core.SyncHistory, error) {
	return o.histories.CreateSyncHistory(ctx, &core.SyncHistory{
		ID:        core.NewRunID(s),
		Source:    s,
		Status:    core.StatusProcessing,
		StartTime: time.Now().UTC(),
	})
}

// execute drives one run to a terminal history row. The run context is
// detached from the trigger's request context so an HTTP disconnect does
// not abort the run.
func (o *Orchestrator) execute(runID string, req *core.SyncRequest) *core.SyncHistory {
	logger := o.logger.With("run_id", runID, "source", req.SourceConfig.Source)
	logger.Info("sync run started")

	ctx, cancel := context.WithTimeout(context.Background(), o.runTimeout)
	defer cancel()

	var records []*core.ProductRecord
	err := o.retryStep(ctx, o.stepTimeout, func(stepCtx context.Context) error {
		raw, fetchErr := o.adapters.Fetch(stepCtx, req)
		if fetchErr != nil {
			return fetchErr
		}
		processed, procErr := o.processor.Process(stepCtx, raw)
		if procErr != nil {
			return procErr
		}
		records = processed
		return nil
	})
	if err != nil {
		return o.failRun(logger, runID, req.SourceConfig, fmt.Errorf("fetch step: %w", err))
	}

	if len(records) == 0 {
		logger.Info("source produced no records")
	} else {
		err = o.retryStep(ctx, o.stepTimeout, func(stepCtx context.Context) error {
			_, upsertErr := o.products.UpsertProducts(stepCtx, records...)
			return upsertErr
		})
		if err != nil {
			return o.failRun(logger, runID, req.SourceConfig, fmt.Errorf("upsert step: %w", err))
		}
	}

	next, err := NextRun(req.SourceConfig, time.Now().UTC())
	if err != nil {
		return o.failRun(logger, runID, req.SourceConfig, fmt.Errorf("finalize step: %w", err))
	}

	var history *core.SyncHistory
	err = o.retryStep(ctx, o.finalizeTimeout, func(stepCtx context.Context) error {
		finalized, finErr := o.histories.FinalizeSyncHistory(stepCtx, runID, storage.FinalizeUpdate{
			Status:           core.StatusSuccess,
			RecordsProcessed: len(records),
			NextRun:          next,
		})
		if finErr != nil {
			return finErr
		}
		history = finalized
		return nil
	})
	if err != nil {
		return o.failRun(logger, runID, req.SourceConfig, fmt.Errorf("finalize step: %w", err))
	}

	logger.Info("sync run succeeded", "records", len(records))
	return history
}

// retryStep runs one step with the retry policy, giving each attempt its
// own timeout.
func (o *Orchestrator) retryStep(ctx context.Context, timeout time.Duration, op func(context.Context) error) error {
	return RetryWithBackoff(ctx, func() error {
		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return op(stepCtx)
	}, o.maxAttempts, o.baseDelay, o.maxDelay)
}

// failRun best-effort finalizes the run as FAILED. It uses a fresh context
// so the failure is recorded even after the run timeout expired. A run that
// was already finalized (finalize succeeded but a later retry observed an
// error) keeps its original terminal row. When the ledger itself cannot be
// updated the returned row is synthesized in memory, so callers always get
// a terminal row even though the stored one is stuck in PROCESSING.
func (o *Orchestrator) failRun(logger *slog.Logger, runID string, cfg core.SourceConfig, runErr error) *core.SyncHistory {
	if errors.Is(runErr, context.DeadlineExceeded) {
		runErr = fmt.Errorf("%w: %v", ErrRunTimeout, runErr)
	}
	logger.Error("sync run failed", "error", runErr)

	ctx, cancel := context.WithTimeout(context.Background(), o.finalizeTimeout)
	defer cancel()

	next, nextErr := NextRun(cfg, time.Now().UTC())
	if nextErr != nil {
		next = nil
	}

	var history *core.SyncHistory
	err := RetryWithBackoff(ctx, func() error {
		finalized, finErr := o.histories.FinalizeSyncHistory(ctx, runID, storage.FinalizeUpdate{
			Status:  core.StatusFailed,
			NextRun: next,
			Error:   runErr.Error(),
		})
		if finErr != nil {
			if errors.Is(finErr, storage.ErrAlreadyFinalized) {
				var getErr error
				history, getErr = o.histories.GetSyncHistory(ctx, runID)
				return getErr
			}
			return finErr
		}
		history = finalized
		return nil
	}, o.maxAttempts, o.baseDelay, o.maxDelay)
	if err != nil {
		logger.Error("failed to record run failure", "error", err)
		now := time.Now().UTC()
		return &core.SyncHistory{
			ID:      runID,
			Source:  cfg.Source,
			Status:  core.StatusFailed,
			EndTime: &now,
			NextRun: next,
			Error:   runErr.Error(),
		}
	}
	return history
}
