package models

// Class identifies the content class of a collection or item.
// The class decides which filter ladder applies and which properties
// are required on client-submitted items.
type Class string

const (
	ClassEmail    Class = "Email"
	ClassCalendar Class = "Calendar"
	ClassContacts Class = "Contacts"
	ClassTasks    Class = "Tasks"
	ClassNotes    Class = "Notes"
	ClassSMS      Class = "SMS"
)

// Valid reports whether c is one of the known content classes.
func (c Class) Valid() bool {
	switch c {
	case ClassEmail, ClassCalendar, ClassContacts, ClassTasks, ClassNotes, ClassSMS:
		return true
	}
	return false
}

// AllowedClassPair reports whether two distinct classes may be requested in
// a single enumeration. The protocol sanctions exactly one pairing:
// Email together with SMS. Every other multi-class combination is rejected
// with StatusProtocolError before any entries are produced.
func AllowedClassPair(a, b Class) bool {
	if a == b {
		return true
	}
	return (a == ClassEmail && b == ClassSMS) || (a == ClassSMS && b == ClassEmail)
}
