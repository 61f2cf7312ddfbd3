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
	"sync"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/time/rate"

	"github.com/canopysearch/catsync/ai"
	"github.com/canopysearch/catsync/core"
	"github.com/canopysearch/catsync/normalize"
	"github.com/canopysearch/catsync/storage"
)

// recordProcessor turns raw source records into product records with
// embeddings. Records are processed concurrently on a bounded pool;
// embedding calls go through a shared rate limiter.
//
// Embedding failures are soft: the record is kept with a nil vector and the
// failure is logged. A stored vector is reused when the record's content
// hash matches the stored row, skipping the embedding call entirely.
type recordProcessor struct {
	normalizer *normalize.Normalizer
	products   storage.ProductRepository
	embedder   ai.Embedder
	pool       *ants.Pool
	limiter    *rate.Limiter
	logger     *slog.Logger
}

func newRecordProcessor(
	normalizer *normalize.Normalizer,
	products storage.ProductRepository,
	embedder ai.Embedder,
	pool *ants.Pool,
	limiter *rate.Limiter,
	logger *slog.Logger,
) *recordProcessor {
	return &recordProcessor{
		normalizer: normalizer,
		products:   products,
		embedder:   embedder,
		pool:       pool,
		limiter:    limiter,
		logger:     logger.With("component", "record-processor"),
	}
}

// Process normalizes and embeds every raw record. The result preserves
// input order.
func (p *recordProcessor) Process(ctx context.Context, raw []core.RawRecord) ([]*core.ProductRecord, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	records := make([]*core.ProductRecord, len(raw))
	var wg sync.WaitGroup
	for i := range raw {
		wg.Add(1)
		item := raw[i]
		slot := i
		if err := p.pool.Submit(func() {
			defer wg.Done()
			records[slot] = p.processRecord(ctx, item)
		}); err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("failed to submit record for processing: %w", err)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (p *recordProcessor) processRecord(ctx context.Context, raw core.RawRecord) *core.ProductRecord {
	record := p.normalizer.Normalize(raw)

	if record.SearchableContent == "" {
		p.logger.Debug("record has no searchable content, skipping embedding", "id", record.ID)
		return record
	}

	if vector, ok := p.storedEmbedding(ctx, record); ok {
		p.logger.Debug("reusing stored embedding", "id", record.ID)
		record.Embedding = vector
		return record
	}

	if err := p.limiter.Wait(ctx); err != nil {
		p.logger.Warn("embedding skipped", "id", record.ID, "error", err)
		return record
	}

	vector, err := p.embedder.EmbedText(ctx, record.SearchableContent)
	if err != nil {
		p.logger.Warn("embedding failed, keeping record without vector", "id", record.ID, "error", err)
		return record
	}
	record.Embedding = vector
	return record
}

// storedEmbedding looks up the stored row for the record and returns its
// vector when the searchable content is unchanged.
func (p *recordProcessor) storedEmbedding(ctx context.Context, record *core.ProductRecord) ([]float32, bool) {
	existing, err := p.products.GetProduct(ctx, record.ID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			p.logger.Warn("failed to look up stored record", "id", record.ID, "error", err)
		}
		return nil, false
	}
	if existing.ContentHash == record.ContentHash && len(existing.Embedding) > 0 {
		return existing.Embedding, true
	}
	return nil, false
}
