package models

import "time"

// ZeroSyncKey is the reserved key value that denotes "no prior state".
// Presenting it (re)initializes the ledger row for the collection.
const ZeroSyncKey = "0"

// ConflictPolicy arbitrates simultaneous client- and server-side
// modifications to the same item.
type ConflictPolicy int

const (
	// ConflictPreferClient (wire value 0): the client's change overwrites
	// the server object.
	ConflictPreferClient ConflictPolicy = 0

	// ConflictPreferServer (wire value 1): the server object is kept, the
	// client's change is discarded and answered with StatusConflict.
	// This is the documented default when no policy is declared.
	ConflictPreferServer ConflictPolicy = 1
)

// SyncState is the ledger row for one (device, collection) pair. It is the
// only mutable engine-owned state; exactly one CurrentKey is valid at any
// instant and only Commit mutates the row.
type SyncState struct {
	DeviceID     string `json:"device_id"`
	CollectionID string `json:"collection_id"`

	// CurrentKey is the opaque key the device must present on its next
	// request. PreviousKey is accepted once more to make the commit step
	// idempotent under retransmission; any other value is rejected with
	// StatusInvalidSyncKey.
	CurrentKey  string `json:"current_key"`
	PreviousKey string `json:"previous_key"`

	// SinceSeq is the collection change sequence up to which changes have
	// been delivered under CurrentKey. PrevSinceSeq is the checkpoint that
	// produced CurrentKey, kept so a retransmitted request replays the
	// same window.
	SinceSeq     int64 `json:"since_seq"`
	PrevSinceSeq int64 `json:"prev_since_seq"`

	// Filter is the FilterType the device last synchronized with. A
	// differing filter on the next request triggers SoftDelete/Add
	// reconciliation of the view.
	Filter FilterType `json:"filter"`

	// Ghosted is the cached ghost set: property names the device declared
	// it will not resend on every Change. Evaluated once per initial sync
	// from the Supported element and kept until the next initial sync.
	Ghosted []string `json:"ghosted,omitempty"`

	// Conflict is the device's last-declared conflict policy for the
	// collection.
	Conflict ConflictPolicy `json:"conflict"`

	UpdatedAt time.Time `json:"updated_at"`
}

// IsGhosted reports whether the named property is in the cached ghost set.
func (s *SyncState) IsGhosted(prop string) bool {
	for _, g := range s.Ghosted {
		if g == prop {
			return true
		}
	}
	return false
}
