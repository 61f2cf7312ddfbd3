package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/canopysearch/catsync/core"
	"github.com/canopysearch/catsync/storage"
)

// historyRepository implements storage.SyncHistoryRepository on badgerhold.
// Finalization is a read-modify-write guarded by a mutex so the
// exactly-once terminal transition holds under concurrent finalize
// attempts (overall-timeout watchdog racing the run itself).
type historyRepository struct {
	backend *Backend
	logger  *slog.Logger
	mu      sync.Mutex
}

var _ storage.SyncHistoryRepository = (*historyRepository)(nil)

// NewSyncHistoryRepository creates a sync history repository on the given
// backend.
//
// Returns storage.SyncHistoryRepository interface to enforce abstraction.
func NewSyncHistoryRepository(backend *Backend) storage.SyncHistoryRepository {
	return &historyRepository{
		backend: backend,
		logger:  slog.Default().With("component", "sync-history-repository"),
	}
}

// CreateSyncHistory appends a new run row in PROCESSING state.
func (r *historyRepository) CreateSyncHistory(ctx context.Context, history *core.SyncHistory) (*core.SyncHistory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if history == nil || history.ID == "" {
		return nil, fmt.Errorf("%w: history id is required", storage.ErrInvalidQuery)
	}
	if history.Status != core.StatusProcessing {
		return nil, fmt.Errorf("%w: new history rows must be PROCESSING, got %s", storage.ErrInvalidQuery, history.Status)
	}

	now := time.Now().UTC()
	history.CreatedAt = now
	history.UpdatedAt = now
	if history.StartTime.IsZero() {
		history.StartTime = now
	}

	if err := r.backend.Store().Insert(history.ID, history); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return nil, fmt.Errorf("%w: sync history %s", storage.ErrDuplicateKey, history.ID)
		}
		return nil, fmt.Errorf("failed to create sync history %s: %w", history.ID, err)
	}

	r.logger.Debug("created sync history", "id", history.ID, "source", history.Source)
	return history, nil
}

// GetSyncHistory retrieves a run row by id.
func (r *historyRepository) GetSyncHistory(ctx context.Context, id string) (*core.SyncHistory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var history core.SyncHistory
	if err := r.backend.Store().Get(id, &history); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%w: sync history %s", storage.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get sync history %s: %w", id, err)
	}
	return &history, nil
}

// ListSyncHistories returns one page ordered by creation time descending.
// It fetches one extra row past the page to detect whether more exist.
func (r *historyRepository) ListSyncHistories(ctx context.Context, page, size int) ([]*core.SyncHistory, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if page < 1 || size < 1 {
		return nil, false, fmt.Errorf("%w: page %d size %d", storage.ErrInvalidQuery, page, size)
	}

	query := badgerhold.Where("ID").Ne("").
		SortBy("CreatedAt").Reverse().
		Skip((page - 1) * size).
		Limit(size + 1)

	var rows []core.SyncHistory
	if err := r.backend.Store().Find(&rows, query); err != nil {
		return nil, false, fmt.Errorf("failed to list sync histories: %w", err)
	}

	hasMore := len(rows) > size
	if hasMore {
		rows = rows[:size]
	}

	result := make([]*core.SyncHistory, len(rows))
	for i := range rows {
		result[i] = &rows[i]
	}
	return result, hasMore, nil
}

// FinalizeSyncHistory performs the single permitted mutation:
// PROCESSING -> terminal status, setting EndTime.
func (r *historyRepository) FinalizeSyncHistory(ctx context.Context, id string, update storage.FinalizeUpdate) (*core.SyncHistory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !update.Status.Terminal() {
		return nil, fmt.Errorf("%w: got %s", storage.ErrNotTerminal, update.Status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	history, err := r.GetSyncHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	if history.Status.Terminal() {
		return nil, fmt.Errorf("%w: sync history %s is %s", storage.ErrAlreadyFinalized, id, history.Status)
	}

	now := time.Now().UTC()
	history.Status = update.Status
	history.EndTime = &now
	history.RecordsProcessed = update.RecordsProcessed
	history.NextRun = update.NextRun
	history.Error = update.Error
	history.UpdatedAt = now

	if err := r.backend.Store().Upsert(history.ID, history); err != nil {
		return nil, fmt.Errorf("failed to finalize sync history %s: %w", id, err)
	}

	r.logger.Debug("finalized sync history", "id", id, "status", history.Status, "records", history.RecordsProcessed)
	return history, nil
}
