package store

import "errors"

// Sentinel errors returned by store and repository methods to signal
// well-known failure conditions. Callers should use [errors.Is] to match
// against these values.
var (
	// ErrCollectionNotFound is returned when an operation targets a
	// collection identifier that does not exist.
	ErrCollectionNotFound = errors.New("collection was not found")

	// ErrItemNotFound is returned when an operation targets an item
	// (identified by server_id within a collection) that does not exist.
	ErrItemNotFound = errors.New("item was not found")

	// ErrItemAlreadyExists is returned when an ApplyAdd collides with an
	// existing server_id in the same collection.
	ErrItemAlreadyExists = errors.New("item already exists")

	// ErrSyncStateNotFound is returned when no ledger row exists for the
	// requested (device, collection) pair.
	ErrSyncStateNotFound = errors.New("sync state was not found")

	// ErrKeyMismatch is returned by CompareAndSwap when the ledger row's
	// current key changed underneath the caller. The commit is refused and
	// no state is mutated.
	ErrKeyMismatch = errors.New("sync key changed concurrently")

	// ErrNotifySetNotFound is returned when a device has no cached
	// notify-able collection set.
	ErrNotifySetNotFound = errors.New("notify set was not found")

	// ErrLoginAlreadyExists is returned when registering a device account
	// whose login is already taken.
	ErrLoginAlreadyExists = errors.New("login already exists")

	// ErrNoDeviceWasFound is returned when a query expected to match a
	// device account produces an empty result set.
	ErrNoDeviceWasFound = errors.New("no device was found")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain
// logic can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised
	// SQL query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a query against the
	// database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open
	// transaction fails. The transaction is considered rolled back at this
	// point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrScanningRow is returned when scanning column values from a single
	// result row into a destination struct fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when scanning column values during
	// multi-row iteration fails, typically mid-result-set.
	ErrScanningRows = errors.New("failed to scan rows")
)
