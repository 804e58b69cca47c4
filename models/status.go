package models

// Status is the protocol-level outcome code carried in sync responses,
// both at the top level and per collection or per client command.
// The values mirror the documented protocol meanings.
type Status int

const (
	// StatusSuccess indicates the operation completed normally.
	StatusSuccess Status = 1

	// StatusInvalidSyncKey indicates the presented synchronization key is
	// neither the current key nor its immediate predecessor. No state is
	// mutated when this status is returned.
	StatusInvalidSyncKey Status = 3

	// StatusProtocolError indicates malformed or disallowed request
	// semantics: GetChanges with key "0", both Wait and HeartbeatInterval
	// present, a disallowed class combination, a missing CollectionId when
	// Supported is present, or redefinition of options for the same class.
	StatusProtocolError Status = 4

	// StatusInvalidItem indicates a client-submitted item failed
	// required-field validation on Add. The failure is scoped to that
	// command only; sibling commands in the same batch still run.
	StatusInvalidItem Status = 6

	// StatusConflict indicates a client Change lost conflict resolution
	// under the PreferServer policy: the server object is kept and the
	// client's change is discarded. This is a negotiated outcome, not a
	// transport error.
	StatusConflict Status = 7

	// StatusObjectNotFound indicates a Change or Fetch referenced an item
	// or collection that no longer exists on the server.
	StatusObjectNotFound Status = 8

	// StatusNoNotifySet indicates an empty request was received while no
	// cached notify-able collection set exists for the device.
	StatusNoNotifySet Status = 13

	// StatusInvalidWaitRange indicates the Wait or HeartbeatInterval value
	// is outside its domain. The response carries a Limit element with the
	// nearest boundary of the violated domain.
	StatusInvalidWaitRange Status = 14
)
