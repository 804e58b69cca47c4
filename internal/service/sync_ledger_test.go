package service

import (
	"testing"

	"github.com/airsyncd/airsyncd/models"
	"github.com/stretchr/testify/assert"
)

// ─────────────────────────────────────────────────────────────────────────────
// classifyKey: key disposition matrix
// ─────────────────────────────────────────────────────────────────────────────

func TestClassifyKey(t *testing.T) {
	state := models.SyncState{
		CurrentKey:  "key-current",
		PreviousKey: "key-previous",
	}

	tests := []struct {
		name      string
		presented string
		found     bool
		want      keyDisposition
	}{
		{name: "ZeroKey/RowExists → Initial", presented: "0", found: true, want: keyInitial},
		{name: "ZeroKey/NoRow → Initial", presented: "0", found: false, want: keyInitial},
		{name: "CurrentKey → Current", presented: "key-current", found: true, want: keyCurrent},
		{name: "PreviousKey → Replay", presented: "key-previous", found: true, want: keyReplay},
		{name: "UnknownKey → Invalid", presented: "key-stale", found: true, want: keyInvalid},
		{name: "NonZeroKey/NoRow → Invalid", presented: "key-current", found: false, want: keyInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyKey(tt.presented, state, tt.found))
		})
	}
}

func TestMintSyncKey_OpaqueAndUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		key := mintSyncKey()

		assert.NotEmpty(t, key)
		assert.NotEqual(t, models.ZeroSyncKey, key)

		_, dup := seen[key]
		assert.False(t, dup, "minted key repeated: %s", key)
		seen[key] = struct{}{}
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// collectionLocks: per-pair serialization
// ─────────────────────────────────────────────────────────────────────────────

func TestCollectionLocks_SamePairSharesMutex(t *testing.T) {
	var locks collectionLocks

	first := locks.lock("device-1", "inbox")
	first.Unlock()

	second := locks.lock("device-1", "inbox")
	second.Unlock()

	assert.Same(t, first, second)
}

func TestCollectionLocks_DistinctPairsAreIndependent(t *testing.T) {
	var locks collectionLocks

	inbox := locks.lock("device-1", "inbox")
	defer inbox.Unlock()

	// Another collection of the same device must not block.
	calendar := locks.lock("device-1", "calendar")
	calendar.Unlock()

	// The same collection of another device must not block either.
	other := locks.lock("device-2", "inbox")
	other.Unlock()

	assert.NotSame(t, inbox, calendar)
	assert.NotSame(t, inbox, other)
}
