package domain

import (
	"encoding/json"
	"time"
)

// Event types emitted by the linker.
const (
	EventIdentityLinked = "identity.linked"
)

// SourceLinker is the source attribute of events produced by this service.
const SourceLinker = "slack-linker"

// Event is a telemetry event (org-scoped, optional user). Metadata is a JSON document.
type Event struct {
	OrgID     string          `json:"org_id"`
	UserID    string          `json:"user_id,omitempty"`
	EventType string          `json:"event_type"`
	Source    string          `json:"source"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
