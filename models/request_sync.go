package models

// SyncRequest is the engine-facing request model produced by the wire
// layer. A single request may address several collections; each collection
// is processed independently and each checkpoint advances independently.
//
// An "empty request" (no collections) re-uses the device's cached
// notify-able collection set from its previous request; when no such set is
// cached the request fails with StatusNoNotifySet.
type SyncRequest struct {
	// Collections are the per-collection sub-requests.
	Collections []SyncCollectionRequest `json:"collections,omitempty"`

	// Wait is the long-poll interval in minutes (domain 1-59). Zero means
	// absent. Mutually exclusive with HeartbeatInterval.
	Wait int `json:"wait,omitempty"`

	// HeartbeatInterval is the long-poll interval in seconds
	// (domain 60-3540). Zero means absent. Mutually exclusive with Wait.
	HeartbeatInterval int `json:"heartbeat_interval,omitempty"`

	// WindowSize bounds the total number of changes delivered across the
	// response. Zero means the default of 100; the hard ceiling of 512
	// applies regardless of the requested value.
	WindowSize int `json:"window_size,omitempty"`

	// Partial marks a request that intentionally omits collections that
	// should be taken from the cached notify set.
	Partial bool `json:"partial,omitempty"`
}

// SyncCollectionRequest addresses one collection with a synchronization key
// and optional client commands and options.
type SyncCollectionRequest struct {
	CollectionID string `json:"collection_id"`

	// SyncKey is the presented synchronization key; ZeroSyncKey
	// (re)initializes the collection's ledger row.
	SyncKey string `json:"sync_key"`

	// GetChanges asks the server to enumerate its side of the delta. It is
	// implied when the request carries no commands; combined with
	// ZeroSyncKey it is a protocol error.
	GetChanges *bool `json:"get_changes,omitempty"`

	// DeletesAsMoves, when unset or true, turns client Delete commands
	// into moves to the Deleted Items collection.
	DeletesAsMoves *bool `json:"deletes_as_moves,omitempty"`

	// ConversationMode widens Add selection to whole conversations that
	// have at least one member inside the active filter window.
	ConversationMode bool `json:"conversation_mode,omitempty"`

	// Supported declares the properties the device resends on every
	// Change. nil means "never declared" (nothing ghosted); a pointer to
	// an empty slice means "declared empty" (everything ghostable is
	// ghosted). Evaluated only on an initial sync.
	Supported *[]string `json:"supported,omitempty"`

	// Options are the per-collection tagged options. Redefinition of an
	// option for the same class is rejected with StatusProtocolError.
	Options OptionList `json:"options,omitempty"`

	// Commands are the client-side mutations and fetches to apply before
	// server-side enumeration.
	Commands CommandList `json:"commands,omitempty"`
}

// WantsChanges reports whether server-side enumeration is requested,
// applying the "implied when no commands are present" rule.
func (r SyncCollectionRequest) WantsChanges() bool {
	if r.GetChanges != nil {
		return *r.GetChanges
	}
	return len(r.Commands) == 0
}

// MovesOnDelete reports whether Delete commands move items to Deleted
// Items (the default) instead of removing them outright.
func (r SyncCollectionRequest) MovesOnDelete() bool {
	return r.DeletesAsMoves == nil || *r.DeletesAsMoves
}
