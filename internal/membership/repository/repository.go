package repository

import (
	"context"

	"slack-identity-linker/internal/membership/domain"
)

// Repository defines persistence for memberships.
type Repository interface {
	GetMembershipByUserAndOrg(ctx context.Context, userID, orgID string) (*domain.Membership, error)
	CreateMembership(ctx context.Context, m *domain.Membership) error
}
