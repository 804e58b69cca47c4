package models

// Well-known collection identifiers created by default for every account.
const (
	CollectionInbox          = "inbox"
	CollectionDeletedItems   = "deleted-items"
	CollectionCalendar       = "calendar"
	CollectionContacts       = "contacts"
	CollectionTasks          = "tasks"
	CollectionNotes          = "notes"
	CollectionRecipientCache = "recipient-cache"
)

// Collection is a server-side folder with a content class and a totally
// ordered change log. Identity is immutable; membership changes over time.
type Collection struct {
	// ID is the stable collection identifier.
	ID string `json:"id"`

	// Name is the display name (Inbox, Calendar, …).
	Name string `json:"name"`

	// Class is the content class of items in the collection.
	Class Class `json:"class"`

	// ReadOnly marks system collections (e.g. the recipient cache) that
	// reject client Add commands with StatusProtocolError.
	ReadOnly bool `json:"read_only"`
}
