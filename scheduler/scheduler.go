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

// Package scheduler fires recurring sync runs for auto-sync sources. Only
// scheduled sources (crawler, hosted file, SQL database) can recur;
// caller-supplied sources are rejected because a timer cannot supply their
// records.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/canopysearch/catsync/core"
	"github.com/canopysearch/catsync/syncrun"
)

// Scheduler wraps robfig/cron and triggers a sync run on every fire.
type Scheduler struct {
	cron         *cron.Cron
	orchestrator *syncrun.Orchestrator
	logger       *slog.Logger
}

// New creates a scheduler driving the given orchestrator.
func New(orchestrator *syncrun.Orchestrator, logger *slog.Logger) (*Scheduler, error) {
	if orchestrator == nil {
		return nil, ErrOrchestratorRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:         cron.New(),
		orchestrator: orchestrator,
		logger:       logger.With("component", "scheduler"),
	}, nil
}

// Register adds a recurring sync for an auto-sync source config. The config
// must be a scheduled source with auto_sync enabled and a valid interval.
func (s *Scheduler) Register(cfg core.SourceConfig) error {
	if err := core.ValidateSourceConfig(&cfg); err != nil {
		return err
	}

	trigger, err := core.TriggerFor(cfg.Source)
	if err != nil {
		return err
	}
	if trigger != core.TriggerScheduled {
		return fmt.Errorf("%w: %s sources cannot auto-sync", core.ErrInvalidSourceConfig, cfg.Source)
	}
	if !cfg.AutoSync {
		return fmt.Errorf("%w: auto_sync is disabled", core.ErrInvalidSourceConfig)
	}

	spec, err := syncrun.CronSpec(cfg.SyncInterval)
	if err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(spec, func() { s.fire(cfg) }); err != nil {
		return fmt.Errorf("failed to register schedule %s: %w", spec, err)
	}

	s.logger.Info("registered auto-sync", "source", cfg.Source, "schedule", spec)
	return nil
}

// Start begins firing registered schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "entries", len(s.cron.Entries()))
}

// Stop stops the scheduler and waits for a running fire to complete.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// Entries returns the number of registered schedules.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// fire runs one scheduled sync. Failures land in the history ledger; they
// never stop the schedule.
func (s *Scheduler) fire(cfg core.SourceConfig) {
	s.logger.Info("scheduled sync fired", "source", cfg.Source)

	history, err := s.orchestrator.Run(context.Background(), &core.SyncRequest{SourceConfig: cfg})
	if err != nil {
		s.logger.Error("scheduled sync could not start", "source", cfg.Source, "error", err)
		return
	}
	s.logger.Info("scheduled sync finished",
		"source", cfg.Source, "run_id", history.ID, "status", history.Status, "records", history.RecordsProcessed)
}
