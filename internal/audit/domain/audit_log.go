package domain

import (
	"errors"
	"time"
)

// AuditLog is one append-only audit record. UserID and Metadata are optional (NULL when empty).
type AuditLog struct {
	ID        string
	OrgID     string
	UserID    string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}

// Validate reports the first missing required field.
func (a *AuditLog) Validate() error {
	switch {
	case a.OrgID == "":
		return errors.New("org_id is required")
	case a.Action == "":
		return errors.New("action is required")
	case a.Resource == "":
		return errors.New("resource is required")
	}
	return nil
}
