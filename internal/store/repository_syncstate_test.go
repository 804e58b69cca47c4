package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/airsyncd/airsyncd/internal/logger"
	"github.com/airsyncd/airsyncd/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSyncStateRepo(t *testing.T) (*syncStateRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	log := logger.Nop()
	repo := &syncStateRepository{
		DB:     &DB{DB: db, dialect: "pgx", logger: log},
		logger: log,
	}
	return repo, mock, db
}

func syncStateRows(state models.SyncState, ghosted []byte) *sqlmock.Rows {
	return sqlmock.
		NewRows([]string{
			"device_id", "collection_id", "current_key", "previous_key",
			"since_seq", "prev_since_seq", "filter", "ghosted", "conflict", "updated_at",
		}).
		AddRow(
			state.DeviceID, state.CollectionID, state.CurrentKey, state.PreviousKey,
			state.SinceSeq, state.PrevSinceSeq, state.Filter, ghosted, state.Conflict, state.UpdatedAt,
		)
}

// ─────────────────────────────────────────────────────────────────────────────
// Get
// ─────────────────────────────────────────────────────────────────────────────

func TestSyncStateRepository_Get(t *testing.T) {
	repo, mock, db := newTestSyncStateRepo(t)
	defer db.Close()

	want := models.SyncState{
		DeviceID:     "device-1",
		CollectionID: models.CollectionInbox,
		CurrentKey:   "key-2",
		PreviousKey:  "key-1",
		SinceSeq:     42,
		PrevSinceSeq: 17,
		Filter:       models.FilterOneWeek,
		UpdatedAt:    time.Now(),
	}

	mock.ExpectQuery("SELECT device_id, collection_id, current_key").
		WithArgs(want.DeviceID, want.CollectionID).
		WillReturnRows(syncStateRows(want, []byte(`["Body"]`)))

	got, err := repo.Get(context.Background(), want.DeviceID, want.CollectionID)
	require.NoError(t, err)

	assert.Equal(t, want.CurrentKey, got.CurrentKey)
	assert.Equal(t, want.PreviousKey, got.PreviousKey)
	assert.Equal(t, int64(42), got.SinceSeq)
	assert.Equal(t, int64(17), got.PrevSinceSeq)
	assert.Equal(t, models.FilterOneWeek, got.Filter)
	assert.Equal(t, []string{"Body"}, got.Ghosted)
}

func TestSyncStateRepository_Get_NoRow(t *testing.T) {
	repo, mock, db := newTestSyncStateRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT device_id, collection_id, current_key").
		WithArgs("device-1", models.CollectionInbox).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "device-1", models.CollectionInbox)
	assert.ErrorIs(t, err, ErrSyncStateNotFound)
}

func TestSyncStateRepository_Get_QueryError(t *testing.T) {
	repo, mock, db := newTestSyncStateRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT device_id, collection_id, current_key").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.Get(context.Background(), "device-1", models.CollectionInbox)
	assert.ErrorIs(t, err, ErrExecutingQuery)
}

// ─────────────────────────────────────────────────────────────────────────────
// Put and CompareAndSwap
// ─────────────────────────────────────────────────────────────────────────────

func TestSyncStateRepository_Put(t *testing.T) {
	repo, mock, db := newTestSyncStateRepo(t)
	defer db.Close()

	state := models.SyncState{
		DeviceID:     "device-1",
		CollectionID: models.CollectionInbox,
		CurrentKey:   "key-1",
		PreviousKey:  models.ZeroSyncKey,
	}

	mock.ExpectExec("INSERT INTO sync_states").
		WithArgs(
			state.DeviceID, state.CollectionID, state.CurrentKey, state.PreviousKey,
			state.SinceSeq, state.PrevSinceSeq, state.Filter,
			sqlmock.AnyArg(), state.Conflict, sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Put(context.Background(), state)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncStateRepository_CompareAndSwap(t *testing.T) {
	repo, mock, db := newTestSyncStateRepo(t)
	defer db.Close()

	state := models.SyncState{
		DeviceID:     "device-1",
		CollectionID: models.CollectionInbox,
		CurrentKey:   "key-3",
		PreviousKey:  "key-2",
		SinceSeq:     50,
		PrevSinceSeq: 42,
	}

	mock.ExpectExec("UPDATE sync_states SET").
		WithArgs(
			state.CurrentKey, state.PreviousKey, state.SinceSeq, state.PrevSinceSeq,
			state.Filter, sqlmock.AnyArg(), state.Conflict, sqlmock.AnyArg(),
			state.DeviceID, state.CollectionID, "key-2",
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CompareAndSwap(context.Background(), "key-2", state)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A CAS matching zero rows probes for the row to tell a stale key apart
// from a missing one.
func TestSyncStateRepository_CompareAndSwap_StaleKey(t *testing.T) {
	repo, mock, db := newTestSyncStateRepo(t)
	defer db.Close()

	state := models.SyncState{
		DeviceID:     "device-1",
		CollectionID: models.CollectionInbox,
		CurrentKey:   "key-3",
	}

	mock.ExpectExec("UPDATE sync_states SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT device_id, collection_id, current_key").
		WithArgs(state.DeviceID, state.CollectionID).
		WillReturnRows(syncStateRows(models.SyncState{
			DeviceID:     state.DeviceID,
			CollectionID: state.CollectionID,
			CurrentKey:   "key-9",
		}, nil))

	err := repo.CompareAndSwap(context.Background(), "key-2", state)
	assert.ErrorIs(t, err, ErrKeyMismatch)
}

func TestSyncStateRepository_CompareAndSwap_MissingRow(t *testing.T) {
	repo, mock, db := newTestSyncStateRepo(t)
	defer db.Close()

	mock.ExpectExec("UPDATE sync_states SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT device_id, collection_id, current_key").
		WillReturnError(sql.ErrNoRows)

	err := repo.CompareAndSwap(context.Background(), "key-2", models.SyncState{
		DeviceID:     "device-1",
		CollectionID: models.CollectionInbox,
	})
	assert.ErrorIs(t, err, ErrSyncStateNotFound)
}

// ─────────────────────────────────────────────────────────────────────────────
// DeleteIdle and the notify set
// ─────────────────────────────────────────────────────────────────────────────

func TestSyncStateRepository_DeleteIdle(t *testing.T) {
	repo, mock, db := newTestSyncStateRepo(t)
	defer db.Close()

	cutoff := time.Now().Add(-30 * 24 * time.Hour)

	mock.ExpectExec("DELETE FROM sync_states").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	pruned, err := repo.DeleteIdle(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), pruned)
}

func TestSyncStateRepository_NotifySet(t *testing.T) {
	repo, mock, db := newTestSyncStateRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT collections FROM notify_sets").
		WithArgs("device-1").
		WillReturnRows(sqlmock.NewRows([]string{"collections"}).AddRow([]byte(`["inbox","calendar"]`)))

	collections, err := repo.NotifySet(context.Background(), "device-1")
	require.NoError(t, err)
	assert.Equal(t, []string{models.CollectionInbox, models.CollectionCalendar}, collections)
}

func TestSyncStateRepository_NotifySet_Empty(t *testing.T) {
	repo, mock, db := newTestSyncStateRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT collections FROM notify_sets").
		WithArgs("device-1").
		WillReturnRows(sqlmock.NewRows([]string{"collections"}).AddRow([]byte(`[]`)))

	_, err := repo.NotifySet(context.Background(), "device-1")
	assert.ErrorIs(t, err, ErrNotifySetNotFound)
}

func TestSyncStateRepository_PutNotifySet(t *testing.T) {
	repo, mock, db := newTestSyncStateRepo(t)
	defer db.Close()

	mock.ExpectExec("INSERT INTO notify_sets").
		WithArgs("device-1", []byte(`["inbox"]`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.PutNotifySet(context.Background(), "device-1", []string{models.CollectionInbox})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
