package store

import (
	"context"
	"sync"
	"time"

	"github.com/airsyncd/airsyncd/models"
)

// MemorySyncStateRepository is an in-memory implementation of
// [SyncStateRepository] used by development deployments and the engine
// tests. All operations are safe for concurrent use.
type MemorySyncStateRepository struct {
	mu         sync.Mutex
	states     map[stateKey]models.SyncState
	notifySets map[string][]string
}

type stateKey struct {
	deviceID     string
	collectionID string
}

var _ SyncStateRepository = (*MemorySyncStateRepository)(nil)

// NewMemorySyncStateRepository constructs an empty repository.
func NewMemorySyncStateRepository() *MemorySyncStateRepository {
	return &MemorySyncStateRepository{
		states:     make(map[stateKey]models.SyncState),
		notifySets: make(map[string][]string),
	}
}

// Get implements [SyncStateRepository].
func (r *MemorySyncStateRepository) Get(_ context.Context, deviceID, collectionID string) (models.SyncState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[stateKey{deviceID, collectionID}]
	if !ok {
		return models.SyncState{}, ErrSyncStateNotFound
	}
	return state, nil
}

// Put implements [SyncStateRepository].
func (r *MemorySyncStateRepository) Put(_ context.Context, state models.SyncState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state.UpdatedAt = time.Now()
	r.states[stateKey{state.DeviceID, state.CollectionID}] = state
	return nil
}

// CompareAndSwap implements [SyncStateRepository]. The swap succeeds only
// while the stored row's CurrentKey still equals expectedKey; otherwise the
// commit is refused with [ErrKeyMismatch] and nothing is mutated.
func (r *MemorySyncStateRepository) CompareAndSwap(_ context.Context, expectedKey string, state models.SyncState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := stateKey{state.DeviceID, state.CollectionID}
	current, ok := r.states[key]
	if !ok {
		return ErrSyncStateNotFound
	}
	if current.CurrentKey != expectedKey {
		return ErrKeyMismatch
	}

	state.UpdatedAt = time.Now()
	r.states[key] = state
	return nil
}

// DeleteIdle implements [SyncStateRepository].
func (r *MemorySyncStateRepository) DeleteIdle(_ context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for key, state := range r.states {
		if state.UpdatedAt.Before(olderThan) {
			delete(r.states, key)
			removed++
		}
	}
	return removed, nil
}

// NotifySet implements [SyncStateRepository].
func (r *MemorySyncStateRepository) NotifySet(_ context.Context, deviceID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.notifySets[deviceID]
	if !ok || len(set) == 0 {
		return nil, ErrNotifySetNotFound
	}
	result := make([]string, len(set))
	copy(result, set)
	return result, nil
}

// PutNotifySet implements [SyncStateRepository].
func (r *MemorySyncStateRepository) PutNotifySet(_ context.Context, deviceID string, collectionIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := make([]string, len(collectionIDs))
	copy(set, collectionIDs)
	r.notifySets[deviceID] = set
	return nil
}
