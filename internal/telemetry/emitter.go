// Package telemetry carries best-effort event emission to OTel logs or Kafka.
package telemetry

import (
	"context"

	"slack-identity-linker/internal/telemetry/domain"
)

// EventEmitter emits telemetry events. Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *domain.Event) error
}
