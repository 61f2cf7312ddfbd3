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

package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/canopysearch/catsync/core"
)

// Adapter fetches raw product records for one sync run. The request's
// SourceConfig is assumed to have passed core.ValidateSyncRequest.
type Adapter interface {
	Fetch(ctx context.Context, req *core.SyncRequest) ([]core.RawRecord, error)
}

// Factory builds adapters for each source kind, sharing an HTTP client and
// logger across the network-backed ones.
type Factory struct {
	client *http.Client
	logger *slog.Logger
}

// Option configures a Factory.
type Option func(*Factory)

// WithHTTPClient sets the HTTP client used by the crawler and hosted file
// adapters. Default has a 30 second timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Factory) {
		if client != nil {
			f.client = client
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFactory creates an adapter factory.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ForSource returns the adapter handling the given source kind.
func (f *Factory) ForSource(s core.Source) (Adapter, error) {
	switch s {
	case core.SourceManualUpload, core.SourcePartnerAPI:
		return &passthroughAdapter{
			logger: f.logger.With("component", "passthrough-source", "source", s),
		}, nil
	case core.SourceCrawler:
		return newCrawlerAdapter(f.client, f.logger), nil
	case core.SourceHostedFile:
		return newHostedFileAdapter(f.client, f.logger), nil
	case core.SourceSQLDatabase:
		return newSQLAdapter(f.logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownSource, s)
	}
}

// Fetch dispatches to the adapter for the request's source and runs it.
func (f *Factory) Fetch(ctx context.Context, req *core.SyncRequest) ([]core.RawRecord, error) {
	adapter, err := f.ForSource(req.SourceConfig.Source)
	if err != nil {
		return nil, err
	}
	return adapter.Fetch(ctx, req)
}
