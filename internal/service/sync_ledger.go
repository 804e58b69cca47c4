package service

import (
	"sync"

	"github.com/airsyncd/airsyncd/models"
	"github.com/google/uuid"
)

// keyDisposition classifies the sync key a request presents against the
// ledger row.
type keyDisposition int

const (
	// keyInitial: the reserved zero key, (re)initializes the row.
	keyInitial keyDisposition = iota

	// keyCurrent: the live key, a normal incremental sync.
	keyCurrent

	// keyReplay: the immediate predecessor, a retransmission. The same
	// window is re-enumerated and the same current key returned; the
	// checkpoint does not advance.
	keyReplay

	// keyInvalid: anything else. Rejected with StatusInvalidSyncKey and
	// no state mutation.
	keyInvalid
)

// classifyKey resolves the presented key against the ledger row. found is
// false when no row exists for the (device, collection) pair.
func classifyKey(presented string, state models.SyncState, found bool) keyDisposition {
	if presented == models.ZeroSyncKey {
		return keyInitial
	}
	if !found {
		return keyInvalid
	}
	switch presented {
	case state.CurrentKey:
		return keyCurrent
	case state.PreviousKey:
		return keyReplay
	}
	return keyInvalid
}

// mintSyncKey produces a fresh opaque sync key. Keys carry no structure;
// ordering lives in the ledger, not in the key value.
func mintSyncKey() string {
	return uuid.NewString()
}

// collectionLocks serializes request processing per (device, collection)
// pair. The database-level compare-and-swap still guards against writers
// on other instances; this mutex just keeps local contenders from doing
// redundant enumeration work that is doomed to lose the CAS.
type collectionLocks struct {
	mu    sync.Mutex
	locks map[collectionLockKey]*sync.Mutex
}

type collectionLockKey struct {
	deviceID     string
	collectionID string
}

func (l *collectionLocks) lock(deviceID, collectionID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.locks == nil {
		l.locks = make(map[collectionLockKey]*sync.Mutex)
	}

	key := collectionLockKey{deviceID: deviceID, collectionID: collectionID}
	lock, ok := l.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[key] = lock
	}

	lock.Lock()
	return lock
}
