package models

import "time"

// Device represents one synchronizing client account. Devices authenticate
// with a login/password pair and are afterwards identified by their
// DeviceID, which keys every ledger row and cached notify set.
type Device struct {
	// ID is the internal unique identifier of the device record.
	// It is not exposed via JSON and is used only at the persistence layer.
	ID int64 `json:"-"`

	// DeviceID is the stable, client-chosen device identity (case
	// sensitive). All synchronization state is keyed by it.
	DeviceID string `json:"device_id"`

	// Login is the unique account login the device belongs to.
	Login string `json:"login"`

	// Password stores the bcrypt hash of the account password, never
	// plaintext. It is excluded from JSON.
	Password string `json:"-"`

	// CreatedAt is the timestamp when the device record was created.
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the name of the database table associated with the
// Device model.
func (d Device) TableName() string {
	return "devices"
}
