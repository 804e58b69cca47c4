package models

import "time"

// Well-known property names used by the engine itself. Everything else in
// an item's property map is opaque payload carried through unchanged.
const (
	PropSubject       = "Subject"
	PropBody          = "Body"
	PropStartTime     = "StartTime"
	PropEndTime       = "EndTime"
	PropRecurrence    = "Recurrence"
	PropRecurrenceEnd = "RecurrenceEnd"
	PropComplete      = "Complete"
	PropDateReceived  = "DateReceived"
	PropCategories    = "Categories"
	PropFlag          = "Flag"
)

// Item is a single server-side object belonging to exactly one collection
// at a time. Its property map holds name → value pairs; nested structures
// (Recurrence, Flag, Body, …) are carried as encoded strings because the
// engine never interprets payload beyond the well-known names above.
type Item struct {
	// ServerID is the stable server-assigned identifier, unique within
	// the collection for the item's whole lifetime.
	ServerID string `json:"server_id"`

	// CollectionID names the collection the item currently belongs to.
	CollectionID string `json:"collection_id"`

	// Class is the content class of the item, normally inherited from the
	// collection it was created in.
	Class Class `json:"class"`

	// ConversationID groups items belonging to one conversation thread.
	// Empty for classes without threading.
	ConversationID string `json:"conversation_id,omitempty"`

	// Props is the item's property map. Omitted-versus-empty distinctions
	// on Change commands are resolved by the ghost policy, not here.
	Props map[string]string `json:"props"`

	// Version is the collection change sequence at the item's last
	// mutation. It is the stamp conflict detection compares against the
	// client's checkpoint.
	Version int64 `json:"version"`

	// CreatedSeq is the collection change sequence at which the item was
	// added. It orders Add entries during enumeration.
	CreatedSeq int64 `json:"created_seq"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the item. Stores hand out clones so that
// engine-side mutation never aliases store-owned state.
func (i Item) Clone() Item {
	props := make(map[string]string, len(i.Props))
	for k, v := range i.Props {
		props[k] = v
	}
	i.Props = props
	return i
}

// Received returns the item's receive/creation timestamp used by date
// filters: DateReceived when present and parseable, CreatedAt otherwise.
func (i Item) Received() time.Time {
	if raw, ok := i.Props[PropDateReceived]; ok {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t
		}
	}
	return i.CreatedAt
}
