package repository

import (
	"context"

	"slack-identity-linker/internal/integration/domain"
)

// Repository defines persistence for integrations and their organization associations.
type Repository interface {
	// GetForOrganization returns the integration only when it is associated with orgID; nil otherwise.
	GetForOrganization(ctx context.Context, id, orgID string) (*domain.Integration, error)
	Create(ctx context.Context, i *domain.Integration) error
	AddOrganization(ctx context.Context, oi *domain.OrganizationIntegration) error
}
