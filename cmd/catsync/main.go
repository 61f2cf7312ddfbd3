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

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/canopysearch/catsync"
	"github.com/canopysearch/catsync/ai"
	"github.com/canopysearch/catsync/core"
	"github.com/canopysearch/catsync/server"
)

func main() {
	app := &cli.App{
		Name:  "catsync",
		Usage: "Product catalog ingestion and sync service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the sync HTTP API and auto-sync scheduler",
				Action: serveCommand,
				Flags: append(systemFlags(),
					&cli.StringFlag{
						Name:  "addr",
						Usage: "HTTP listen address",
						Value: ":8080",
					},
					&cli.StringFlag{
						Name:  "sources",
						Usage: "Path to a JSON file of auto-sync source configs",
					},
				),
			},
			{
				Name:   "sync",
				Usage:  "Execute one sync run from a JSON request file and exit",
				Action: syncCommand,
				Flags: append(systemFlags(),
					&cli.StringFlag{
						Name:     "request",
						Aliases:  []string{"r"},
						Usage:    "Path to a JSON sync request file",
						Required: true,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// systemFlags are the flags shared by every command that builds a System.
func systemFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
			EnvVars:  []string{"CATSYNC_DB"},
		},
		&cli.StringFlag{
			Name:    "embedding-host",
			Usage:   "Embedding service host URL",
			Value:   "http://localhost:11434/v1",
			EnvVars: []string{"CATSYNC_EMBEDDING_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   "embeddinggemma",
			EnvVars: []string{"CATSYNC_EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "api-token",
			Usage:   "Embedding service API token",
			EnvVars: []string{"CATSYNC_API_TOKEN"},
		},
		&cli.StringFlag{
			Name:     "id-field",
			Usage:    "Raw attribute holding the record identity",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "title-field",
			Usage:    "Raw attribute holding the display title",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "image-field",
			Usage: "Raw attribute holding an image URL",
		},
		&cli.StringSliceFlag{
			Name:     "searchable-fields",
			Usage:    "Raw attributes joined into searchable content, in order",
			Required: true,
		},
	}
}

func buildSystem(c *cli.Context) (*catsync.System, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithAPIToken(c.String("api-token")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	mapping := core.FieldMapping{
		IDField:                   c.String("id-field"),
		TitleField:                c.String("title-field"),
		ImageField:                c.String("image-field"),
		SearchableAttributeFields: c.StringSlice("searchable-fields"),
	}

	system, err := catsync.NewSystem(c.String("db"), mapping, catsync.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to build system: %w", err)
	}
	return system, nil
}

func serveCommand(c *cli.Context) error {
	system, err := buildSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	if path := c.String("sources"); path != "" {
		configs, err := loadSourceConfigs(path)
		if err != nil {
			return err
		}
		for _, cfg := range configs {
			if err := system.Scheduler().Register(cfg); err != nil {
				return fmt.Errorf("failed to register %s: %w", cfg.Source, err)
			}
		}
	}
	system.Scheduler().Start()

	srv, err := system.NewServer(server.WithAddr(c.String("addr")))
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}

func syncCommand(c *cli.Context) error {
	system, err := buildSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	req, err := loadSyncRequest(c.String("request"))
	if err != nil {
		return err
	}

	history, err := system.Orchestrator().Run(context.Background(), req)
	if err != nil {
		return fmt.Errorf("sync could not start: %w", err)
	}

	fmt.Printf("run %s finished: status=%s records=%d\n", history.ID, history.Status, history.RecordsProcessed)
	if history.Status == core.StatusFailed {
		return fmt.Errorf("sync failed: %s", history.Error)
	}
	return nil
}

func loadSyncRequest(path string) (*core.SyncRequest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request file: %w", err)
	}
	var req core.SyncRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request file: %w", err)
	}
	return &req, nil
}

func loadSourceConfigs(path string) ([]core.SourceConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}
	var configs []core.SourceConfig
	if err := json.Unmarshal(raw, &configs); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}
	return configs, nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
