package models

// ChangeOp tags a single server-side delta produced during enumeration.
type ChangeOp string

const (
	// OpAdd introduces an item the client has not seen under this filter.
	OpAdd ChangeOp = "Add"

	// OpChange updates an item the client already holds.
	OpChange ChangeOp = "Change"

	// OpDelete removes an item that was actually deleted on the server.
	OpDelete ChangeOp = "Delete"

	// OpSoftDelete removes an item from the client's view because the
	// active filter excludes it; the item still exists on the server.
	OpSoftDelete ChangeOp = "SoftDelete"
)

// ChangeLogRecord is one persisted row of a collection's totally ordered
// change log: at sequence Seq, the item was added, changed or deleted.
// The enumerator folds records since a checkpoint into net ChangeEntry
// deltas.
type ChangeLogRecord struct {
	Seq      int64    `json:"seq"`
	Op       ChangeOp `json:"op"`
	ServerID string   `json:"server_id"`
}

// ChangeEntry is one tagged delta over an item snapshot. Entries exist only
// between enumeration and response assembly; they are never persisted.
type ChangeEntry struct {
	// Op is the delta kind.
	Op ChangeOp `json:"op"`

	// ServerID identifies the affected item.
	ServerID string `json:"server_id"`

	// Seq is the change-log sequence that first affected the item since
	// the checkpoint. Entries are delivered in ascending Seq order and the
	// checkpoint of a paginated response advances only to the last
	// delivered Seq.
	Seq int64 `json:"-"`

	// Item carries the property payload: the full (class-filtered) set for
	// Add, mutated properties expanded per the ghost policy for Change.
	// Nil for Delete and SoftDelete.
	Item *Item `json:"item,omitempty"`
}
