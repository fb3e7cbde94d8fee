package domain

import "time"

// DefaultDeviceClass is used when a login does not name a device class.
const DefaultDeviceClass = "web"

// SessionToken is the server-side half of a session. There is at most one
// per (AccountID, DeviceClass); logging in again on the same device class
// keeps ID and Secret and only moves the timestamps.
type SessionToken struct {
	ID          string
	AccountID   string
	Secret      string
	DeviceClass string
	RefreshedAt time.Time
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// Credential is the bundle handed to a client after login and presented on
// every authenticated call. Timestamp is the session expiry in Unix
// milliseconds at the moment of issuance.
type Credential struct {
	AccountID string `json:"user_id"`
	TokenID   string `json:"token_id"`
	Signature string `json:"token_sign"`
	Timestamp int64  `json:"timestamp"`
}

// Complete reports whether every field of the credential is present.
func (c Credential) Complete() bool {
	return c.AccountID != "" && c.TokenID != "" && c.Signature != "" && c.Timestamp != 0
}

// ActivationLink is what gets mailed to an unactivated account.
type ActivationLink struct {
	AccountID string
	Signature string
	ExpiresAt int64 // unix millis
	URL       string
}
