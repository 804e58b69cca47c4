package models

// Credentials is the login/password pair a device presents on the
// authentication surface, together with its self-chosen device identity.
type Credentials struct {
	DeviceID string `json:"device_id"`
	Login    string `json:"login"`
	Password string `json:"password"`
}
