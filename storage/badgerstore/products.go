package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/canopysearch/catsync/core"
	"github.com/canopysearch/catsync/storage"
)

// productRepository implements storage.ProductRepository on badgerhold.
type productRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.ProductRepository = (*productRepository)(nil)

// NewProductRepository creates a product repository on the given backend.
//
// Returns storage.ProductRepository interface to enforce abstraction.
func NewProductRepository(backend *Backend) storage.ProductRepository {
	return &productRepository{
		backend: backend,
		logger:  slog.Default().With("component", "product-repository"),
	}
}

// UpsertProducts writes records by id. CreatedAt is preserved for rows that
// already exist; UpdatedAt is always refreshed.
func (r *productRepository) UpsertProducts(ctx context.Context, records ...*core.ProductRecord) (int, error) {
	now := time.Now().UTC()
	written := 0

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if record.ID == "" {
			return written, fmt.Errorf("%w: product id is required", storage.ErrInvalidQuery)
		}

		var existing core.ProductRecord
		err := r.backend.Store().Get(record.ID, &existing)
		switch {
		case err == nil:
			record.CreatedAt = existing.CreatedAt
		case errors.Is(err, badgerhold.ErrNotFound):
			if record.CreatedAt.IsZero() {
				record.CreatedAt = now
			}
		default:
			return written, fmt.Errorf("failed to read product %s: %w", record.ID, err)
		}
		record.UpdatedAt = now

		if err := r.backend.Store().Upsert(record.ID, record); err != nil {
			return written, fmt.Errorf("failed to upsert product %s: %w", record.ID, err)
		}
		written++
	}

	r.logger.Debug("upserted products", "count", written)
	return written, nil
}

// GetProduct retrieves a single product by id.
func (r *productRepository) GetProduct(ctx context.Context, id string) (*core.ProductRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var record core.ProductRecord
	if err := r.backend.Store().Get(id, &record); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %s", storage.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	return &record, nil
}

// ListProducts retrieves up to limit products ordered by id.
func (r *productRepository) ListProducts(ctx context.Context, limit, offset int) ([]*core.ProductRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit < 1 || offset < 0 {
		return nil, fmt.Errorf("%w: limit %d offset %d", storage.ErrInvalidQuery, limit, offset)
	}

	query := badgerhold.Where("ID").Ne("").SortBy("ID").Skip(offset).Limit(limit)

	var records []core.ProductRecord
	if err := r.backend.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	result := make([]*core.ProductRecord, len(records))
	for i := range records {
		result[i] = &records[i]
	}
	return result, nil
}
