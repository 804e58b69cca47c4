package models

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Token wraps a JWT bearer token issued to a device.
//
// It embeds [jwt.RegisteredClaims] for standard claim access; the device
// identity travels in the "sub" claim. SignedString holds the compact
// serialized form ready for the Authorization header.
type Token struct {
	// Token is the underlying JWT used for signing and claim inspection.
	// Excluded from JSON because only the compact string form is
	// meaningful outside the server process.
	*jwt.Token `json:"-"`

	jwt.RegisteredClaims

	// SignedString is the compact JWS representation of the token.
	SignedString string `json:"token"`

	// DeviceID is the device identity cached from the "sub" claim.
	DeviceID string `json:"-"`
}

// GetDeviceID extracts the device identity from the token's "sub" claim.
func (t *Token) GetDeviceID() (string, error) {
	deviceID, err := t.GetSubject()
	if err != nil {
		return "", fmt.Errorf("error extracting device ID from token: %w", err)
	}
	if deviceID == "" {
		return "", fmt.Errorf("token subject claim is empty")
	}
	return deviceID, nil
}

// String returns the compact JWS serialization of the token.
// It implements the [fmt.Stringer] interface.
func (t *Token) String() string {
	return t.SignedString
}
