package repository

import (
	"context"

	"slack-identity-linker/internal/rule/domain"
)

// Repository defines persistence for rules and neglected-rule records.
type Repository interface {
	CreateRule(ctx context.Context, r *domain.Rule) error
	// CreateNeglectedRule inserts n and sets n.ID from the generated key.
	CreateNeglectedRule(ctx context.Context, n *domain.NeglectedRule) error
	// GetNeglectedRule returns the record for (orgID, ruleID), or nil if not found.
	GetNeglectedRule(ctx context.Context, orgID, ruleID string) (*domain.NeglectedRule, error)
	SetOptedOut(ctx context.Context, id int64, optedOut bool) error
}
