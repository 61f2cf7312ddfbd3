package storage

import (
	"context"
	"time"

	"github.com/canopysearch/catsync/core"
)

// ProductRepository provides operations for the product catalog.
// Implementations must be thread-safe: runs for different sources may write
// concurrently, and upserts are keyed by record id (last write wins).
type ProductRepository interface {
	// UpsertProducts writes records by id, inserting new rows and replacing
	// existing ones. CreatedAt is preserved for existing rows. Returns the
	// number of records written.
	UpsertProducts(ctx context.Context, records ...*core.ProductRecord) (int, error)

	// GetProduct retrieves a single product by id.
	// Returns ErrNotFound if the record doesn't exist.
	GetProduct(ctx context.Context, id string) (*core.ProductRecord, error)

	// ListProducts retrieves up to limit products ordered by id, skipping
	// offset rows.
	ListProducts(ctx context.Context, limit, offset int) ([]*core.ProductRecord, error)
}

// FinalizeUpdate carries the single permitted mutation of a SyncHistory row.
type FinalizeUpdate struct {
	// Status must be a terminal status.
	Status core.SyncStatus
	// RecordsProcessed is the number of records the run attempted.
	RecordsProcessed int
	// NextRun is the next scheduled fire for auto-sync sources, if any.
	NextRun *time.Time
	// Error is failure detail for FAILED runs.
	Error string
}

// SyncHistoryRepository is the append/update-only audit ledger of sync runs.
// A row is created in PROCESSING and finalized exactly once; finalized rows
// are immutable.
type SyncHistoryRepository interface {
	// CreateSyncHistory appends a new run row. Status must be PROCESSING.
	// Sets CreatedAt/UpdatedAt. Returns ErrDuplicateKey on id reuse.
	CreateSyncHistory(ctx context.Context, history *core.SyncHistory) (*core.SyncHistory, error)

	// GetSyncHistory retrieves a run row by id.
	// Returns ErrNotFound if the row doesn't exist.
	GetSyncHistory(ctx context.Context, id string) (*core.SyncHistory, error)

	// ListSyncHistories returns one page of run rows ordered by creation
	// time descending, plus whether more pages exist. Pages start at 1.
	ListSyncHistories(ctx context.Context, page, size int) ([]*core.SyncHistory, bool, error)

	// FinalizeSyncHistory transitions a PROCESSING row to a terminal status,
	// setting EndTime and UpdatedAt. Returns ErrNotFound if the row doesn't
	// exist and ErrAlreadyFinalized if it is already terminal.
	FinalizeSyncHistory(ctx context.Context, id string, update FinalizeUpdate) (*core.SyncHistory, error)
}
