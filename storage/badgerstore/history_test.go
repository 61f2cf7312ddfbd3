package badgerstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canopysearch/catsync/core"
	"github.com/canopysearch/catsync/storage"
)

func setupHistories(t *testing.T) storage.SyncHistoryRepository {
	t.Helper()
	_, histories, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return histories
}

func newProcessingRow(source core.Source) *core.SyncHistory {
	return &core.SyncHistory{
		ID:     core.NewRunID(source),
		Source: source,
		Status: core.StatusProcessing,
	}
}

func TestCreateAndGetSyncHistory(t *testing.T) {
	repo := setupHistories(t)
	ctx := context.Background()

	row := newProcessingRow(core.SourceCrawler)
	created, err := repo.CreateSyncHistory(ctx, row)
	require.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.StartTime.IsZero())
	assert.Nil(t, created.EndTime)

	got, err := repo.GetSyncHistory(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, core.SourceCrawler, got.Source)
	assert.Equal(t, core.StatusProcessing, got.Status)
}

func TestCreateSyncHistoryRejectsTerminalStatus(t *testing.T) {
	repo := setupHistories(t)

	row := newProcessingRow(core.SourceCrawler)
	row.Status = core.StatusSuccess
	_, err := repo.CreateSyncHistory(context.Background(), row)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestCreateSyncHistoryDuplicateID(t *testing.T) {
	repo := setupHistories(t)
	ctx := context.Background()

	row := newProcessingRow(core.SourcePartnerAPI)
	_, err := repo.CreateSyncHistory(ctx, row)
	require.NoError(t, err)

	dup := newProcessingRow(core.SourcePartnerAPI)
	dup.ID = row.ID
	_, err = repo.CreateSyncHistory(ctx, dup)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestGetSyncHistoryNotFound(t *testing.T) {
	repo := setupHistories(t)

	_, err := repo.GetSyncHistory(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFinalizeSyncHistory(t *testing.T) {
	repo := setupHistories(t)
	ctx := context.Background()

	row := newProcessingRow(core.SourceHostedFile)
	_, err := repo.CreateSyncHistory(ctx, row)
	require.NoError(t, err)

	next := time.Now().UTC().Add(24 * time.Hour)
	finalized, err := repo.FinalizeSyncHistory(ctx, row.ID, storage.FinalizeUpdate{
		Status:           core.StatusSuccess,
		RecordsProcessed: 42,
		NextRun:          &next,
	})
	require.NoError(t, err)
	assert.Equal(t, core.StatusSuccess, finalized.Status)
	assert.Equal(t, 42, finalized.RecordsProcessed)
	require.NotNil(t, finalized.EndTime)
	require.NotNil(t, finalized.NextRun)
	assert.Equal(t, next.Unix(), finalized.NextRun.Unix())

	got, err := repo.GetSyncHistory(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusSuccess, got.Status)
}

func TestFinalizeSyncHistoryExactlyOnce(t *testing.T) {
	repo := setupHistories(t)
	ctx := context.Background()

	row := newProcessingRow(core.SourceSQLDatabase)
	_, err := repo.CreateSyncHistory(ctx, row)
	require.NoError(t, err)

	_, err = repo.FinalizeSyncHistory(ctx, row.ID, storage.FinalizeUpdate{
		Status: core.StatusFailed,
		Error:  "connection refused",
	})
	require.NoError(t, err)

	_, err = repo.FinalizeSyncHistory(ctx, row.ID, storage.FinalizeUpdate{Status: core.StatusSuccess})
	assert.ErrorIs(t, err, storage.ErrAlreadyFinalized)

	got, err := repo.GetSyncHistory(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, got.Status)
	assert.Equal(t, "connection refused", got.Error)
}

func TestFinalizeSyncHistoryRejectsNonTerminal(t *testing.T) {
	repo := setupHistories(t)
	ctx := context.Background()

	row := newProcessingRow(core.SourceManualUpload)
	_, err := repo.CreateSyncHistory(ctx, row)
	require.NoError(t, err)

	_, err = repo.FinalizeSyncHistory(ctx, row.ID, storage.FinalizeUpdate{Status: core.StatusProcessing})
	assert.ErrorIs(t, err, storage.ErrNotTerminal)
}

func TestListSyncHistoriesPagination(t *testing.T) {
	repo := setupHistories(t)
	ctx := context.Background()

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		row := newProcessingRow(core.SourceCrawler)
		_, err := repo.CreateSyncHistory(ctx, row)
		require.NoError(t, err)
		ids = append(ids, row.ID)
		time.Sleep(2 * time.Millisecond)
	}

	first, hasMore, err := repo.ListSyncHistories(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.True(t, hasMore)
	assert.Equal(t, ids[4], first[0].ID, "newest run comes first")
	assert.Equal(t, ids[3], first[1].ID)

	last, hasMore, err := repo.ListSyncHistories(ctx, 3, 2)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.False(t, hasMore)
	assert.Equal(t, ids[0], last[0].ID)

	empty, hasMore, err := repo.ListSyncHistories(ctx, 4, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.False(t, hasMore)

	_, _, err = repo.ListSyncHistories(ctx, 0, 2)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}
