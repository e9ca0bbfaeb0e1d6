package domain

import "time"

// Identity binds one local user to one external user id inside one IdentityProvider's namespace.
// Uniqueness per (user, idp) and per (external id, idp) is expected but not enforced by storage.
type Identity struct {
	ID           string
	UserID       string
	IdpID        string
	ExternalID   string
	Status       IdentityStatus
	DateVerified *time.Time
	CreatedAt    time.Time
}

type IdentityStatus string

const (
	IdentityStatusUnknown IdentityStatus = "unknown"
	IdentityStatusValid   IdentityStatus = "valid"
	IdentityStatusInvalid IdentityStatus = "invalid"
)

// IdentityUpdate carries the fields a link may change on an existing identity. Nil fields are left as-is.
type IdentityUpdate struct {
	UserID       *string
	ExternalID   *string
	Status       IdentityStatus
	DateVerified time.Time
}
