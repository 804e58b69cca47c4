package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/airsyncd/airsyncd/internal/logger"
	"github.com/airsyncd/airsyncd/models"
)

// syncStateRepository is the SQL-backed implementation of
// [SyncStateRepository]. It keeps the ledger rows in the "sync_states"
// table and the per-device notify sets in "notify_sets".
//
// Every public method obtains a context-scoped logger via
// [logger.FromContext] so that all database interactions are traced with
// structured fields (device_id, collection_id, sync_key).
type syncStateRepository struct {
	*DB
	logger *logger.Logger
}

// NewSyncStateRepository constructs a [SyncStateRepository] backed by the
// provided database connection and logger.
func NewSyncStateRepository(db *DB, logger *logger.Logger) SyncStateRepository {
	return &syncStateRepository{
		DB:     db,
		logger: logger,
	}
}

// Get retrieves the ledger row for a (device, collection) pair.
// Returns [ErrSyncStateNotFound] when the device never initialized the
// collection.
func (r *syncStateRepository) Get(ctx context.Context, deviceID, collectionID string) (models.SyncState, error) {
	log := logger.FromContext(ctx)

	var state models.SyncState
	var ghosted []byte

	err := r.DB.QueryRowContext(ctx, getSyncState, deviceID, collectionID).Scan(
		&state.DeviceID,
		&state.CollectionID,
		&state.CurrentKey,
		&state.PreviousKey,
		&state.SinceSeq,
		&state.PrevSinceSeq,
		&state.Filter,
		&ghosted,
		&state.Conflict,
		&state.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SyncState{}, ErrSyncStateNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "syncStateRepository.Get").
			Str("device_id", deviceID).
			Str("collection_id", collectionID).
			Msg("failed to query sync state")
		return models.SyncState{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	if len(ghosted) > 0 {
		if err := json.Unmarshal(ghosted, &state.Ghosted); err != nil {
			log.Err(err).
				Str("func", "syncStateRepository.Get").
				Str("device_id", deviceID).
				Msg("failed to decode ghost set")
			return models.SyncState{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
	}

	return state, nil
}

// Put unconditionally upserts a ledger row. Used only for the initializing
// commit (presented key "0"), which by contract always succeeds.
func (r *syncStateRepository) Put(ctx context.Context, state models.SyncState) error {
	log := logger.FromContext(ctx)

	ghosted, err := json.Marshal(state.Ghosted)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	_, err = r.DB.ExecContext(ctx, upsertSyncState,
		state.DeviceID,
		state.CollectionID,
		state.CurrentKey,
		state.PreviousKey,
		state.SinceSeq,
		state.PrevSinceSeq,
		state.Filter,
		ghosted,
		state.Conflict,
		time.Now(),
	)
	if err != nil {
		log.Err(err).
			Str("func", "syncStateRepository.Put").
			Str("device_id", state.DeviceID).
			Str("collection_id", state.CollectionID).
			Msg("failed to upsert sync state")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	log.Debug().
		Str("func", "syncStateRepository.Put").
		Str("device_id", state.DeviceID).
		Str("collection_id", state.CollectionID).
		Str("sync_key", state.CurrentKey).
		Msg("sync state initialized")

	return nil
}

// CompareAndSwap replaces the ledger row only while its stored current_key
// still equals expectedKey.
//
// Zero affected rows means either the row vanished or another commit
// advanced the key first; the follow-up existence probe distinguishes
// [ErrSyncStateNotFound] from [ErrKeyMismatch]. In both cases no state was
// mutated.
func (r *syncStateRepository) CompareAndSwap(ctx context.Context, expectedKey string, state models.SyncState) error {
	log := logger.FromContext(ctx)

	ghosted, err := json.Marshal(state.Ghosted)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	result, err := r.DB.ExecContext(ctx, casSyncState,
		state.CurrentKey,
		state.PreviousKey,
		state.SinceSeq,
		state.PrevSinceSeq,
		state.Filter,
		ghosted,
		state.Conflict,
		time.Now(),
		state.DeviceID,
		state.CollectionID,
		expectedKey,
	)
	if err != nil {
		log.Err(err).
			Str("func", "syncStateRepository.CompareAndSwap").
			Str("device_id", state.DeviceID).
			Str("collection_id", state.CollectionID).
			Msg("failed to execute sync state CAS")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	if affected > 0 {
		return nil
	}

	if _, getErr := r.Get(ctx, state.DeviceID, state.CollectionID); errors.Is(getErr, ErrSyncStateNotFound) {
		return ErrSyncStateNotFound
	}

	log.Warn().
		Str("func", "syncStateRepository.CompareAndSwap").
		Str("device_id", state.DeviceID).
		Str("collection_id", state.CollectionID).
		Str("expected_key", expectedKey).
		Msg("optimistic lock failed: sync key advanced concurrently")

	return ErrKeyMismatch
}

// DeleteIdle removes ledger rows whose last commit is older than the given
// time.
func (r *syncStateRepository) DeleteIdle(ctx context.Context, olderThan time.Time) (int64, error) {
	log := logger.FromContext(ctx)

	result, err := r.DB.ExecContext(ctx, deleteIdleSyncStates, olderThan)
	if err != nil {
		log.Err(err).
			Str("func", "syncStateRepository.DeleteIdle").
			Time("older_than", olderThan).
			Msg("failed to delete idle sync states")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return affected, nil
}

// NotifySet retrieves the device's cached notify-able collection set.
func (r *syncStateRepository) NotifySet(ctx context.Context, deviceID string) ([]string, error) {
	log := logger.FromContext(ctx)

	var raw []byte
	err := r.DB.QueryRowContext(ctx, getNotifySet, deviceID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotifySetNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "syncStateRepository.NotifySet").
			Str("device_id", deviceID).
			Msg("failed to query notify set")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	var collections []string
	if err := json.Unmarshal(raw, &collections); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	if len(collections) == 0 {
		return nil, ErrNotifySetNotFound
	}

	return collections, nil
}

// PutNotifySet caches the device's notify-able collection set.
func (r *syncStateRepository) PutNotifySet(ctx context.Context, deviceID string, collectionIDs []string) error {
	log := logger.FromContext(ctx)

	raw, err := json.Marshal(collectionIDs)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err := r.DB.ExecContext(ctx, upsertNotifySet, deviceID, raw, time.Now()); err != nil {
		log.Err(err).
			Str("func", "syncStateRepository.PutNotifySet").
			Str("device_id", deviceID).
			Msg("failed to upsert notify set")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return nil
}
