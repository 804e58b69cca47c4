package store

import (
	"context"
	"time"

	"github.com/airsyncd/airsyncd/models"
)

// ItemStore is the single source of truth for collections and items. The
// engine reads through it and writes through it; it owns the per-collection
// change log and the monotonically increasing change sequence that stamps
// every mutation.
type ItemStore interface {
	// Collection returns collection metadata, or ErrCollectionNotFound.
	Collection(ctx context.Context, collectionID string) (models.Collection, error)

	// Collections lists every collection.
	Collections(ctx context.Context) ([]models.Collection, error)

	// Items returns the current live items of a collection.
	Items(ctx context.Context, collectionID string) ([]models.Item, error)

	// Item returns one live item, or ErrItemNotFound.
	Item(ctx context.Context, collectionID, serverID string) (models.Item, error)

	// ChangesSince returns the collection's change-log records with
	// Seq > sinceSeq, in ascending sequence order.
	ChangesSince(ctx context.Context, collectionID string, sinceSeq int64) ([]models.ChangeLogRecord, error)

	// CurrentVersion returns the collection's latest change sequence:
	// the opaque stamp a checkpoint records at commit time.
	CurrentVersion(ctx context.Context, collectionID string) (int64, error)

	// ApplyAdd inserts a new item, assigns its ServerID when empty, stamps
	// it with the next change sequence and appends an Add log record.
	ApplyAdd(ctx context.Context, item models.Item) (models.Item, error)

	// ApplyChange replaces the property map of an existing item, bumps its
	// version stamp and appends a Change log record.
	ApplyChange(ctx context.Context, item models.Item) (models.Item, error)

	// ApplyDelete removes an item and appends a Delete log record.
	ApplyDelete(ctx context.Context, collectionID, serverID string) error

	// MoveItem transfers an item to another collection: a Delete record in
	// the source log and an Add record in the destination log.
	MoveItem(ctx context.Context, serverID, fromCollectionID, toCollectionID string) (models.Item, error)
}

// SyncStateRepository persists the ledger rows keyed by
// (device, collection) and the per-device cached notify-able collection
// set.
type SyncStateRepository interface {
	// Get returns the ledger row, or ErrSyncStateNotFound.
	Get(ctx context.Context, deviceID, collectionID string) (models.SyncState, error)

	// Put unconditionally upserts a ledger row. Used only for the
	// initializing commit (presented key "0").
	Put(ctx context.Context, state models.SyncState) error

	// CompareAndSwap replaces the ledger row only while its current_key
	// still equals expectedKey. A concurrent commit that already advanced
	// the key makes it fail with ErrKeyMismatch and no state is mutated.
	CompareAndSwap(ctx context.Context, expectedKey string, state models.SyncState) error

	// DeleteIdle removes ledger rows not touched since the given time and
	// returns the number of rows removed.
	DeleteIdle(ctx context.Context, olderThan time.Time) (int64, error)

	// NotifySet returns the device's cached notify-able collection set, or
	// ErrNotifySetNotFound when the device never synced a full request.
	NotifySet(ctx context.Context, deviceID string) ([]string, error)

	// PutNotifySet caches the device's notify-able collection set.
	PutNotifySet(ctx context.Context, deviceID string, collectionIDs []string) error
}

// DeviceRepository persists device accounts used by the authentication
// surface.
type DeviceRepository interface {
	CreateDevice(ctx context.Context, device models.Device) (models.Device, error)
	FindDeviceByLogin(ctx context.Context, login string) (models.Device, error)
}
