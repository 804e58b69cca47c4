package models

// SyncResponse is the engine-level result envelope consumed by the wire
// encoder. An entirely unchanged synchronization (no client commands, no
// server deltas, long-poll timeout included) is represented by Empty=true
// and yields no payload at all on the wire, not an empty-but-present
// envelope.
type SyncResponse struct {
	// Status is the global outcome. Per-collection failures that do not
	// invalidate the whole request leave it at StatusSuccess.
	Status Status `json:"status"`

	// Limit accompanies StatusInvalidWaitRange: the nearest boundary of
	// the violated Wait/HeartbeatInterval domain.
	Limit int `json:"limit,omitempty"`

	// Collections are the per-collection results, in request order.
	Collections []SyncCollectionResponse `json:"collections,omitempty"`

	// Empty marks the no-payload response.
	Empty bool `json:"-"`
}

// SyncCollectionResponse is the per-collection result.
type SyncCollectionResponse struct {
	CollectionID string `json:"collection_id"`

	// Status is the per-collection outcome.
	Status Status `json:"status"`

	// SyncKey is the freshly minted key the device must present next.
	SyncKey string `json:"sync_key,omitempty"`

	// Commands are the enumerated server-side changes. Present only when
	// non-empty.
	Commands []ChangeEntry `json:"commands,omitempty"`

	// Responses are the per-command outcomes for client-submitted
	// commands. Present only when the client submitted at least one.
	Responses []CommandResponse `json:"responses,omitempty"`

	// MoreAvailable is present iff at least one more change remains
	// beyond the delivered batch.
	MoreAvailable bool `json:"more_available,omitempty"`
}

// CommandResponse reports the outcome of one client-submitted command.
type CommandResponse struct {
	// Op names the command kind the outcome belongs to
	// (Add/Change/Delete/Fetch).
	Op string `json:"op"`

	// ClientID echoes the temporary identifier of an Add command.
	ClientID string `json:"client_id,omitempty"`

	// ServerID is the server-assigned identifier (for Add, the freshly
	// minted one).
	ServerID string `json:"server_id,omitempty"`

	// Status is the per-command outcome; failures here never abort
	// sibling commands.
	Status Status `json:"status"`

	// Item carries the fetched payload for a successful Fetch.
	Item *Item `json:"item,omitempty"`
}
