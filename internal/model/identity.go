package model

import "time"

// Identity is a resolved caller. It is produced by an identity resolver
// and treated as read-only by the authorization layer.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role"`

	// ExpiresAt is when the credential stops being valid. Zero when the
	// source does not say.
	ExpiresAt time.Time `json:"-"`
}
