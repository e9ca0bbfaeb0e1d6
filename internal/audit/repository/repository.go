package repository

import (
	"context"

	"slack-identity-linker/internal/audit/domain"
)

// Repository defines persistence for audit logs. The linker only appends.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
}
