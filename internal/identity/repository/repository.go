package repository

import (
	"context"

	"slack-identity-linker/internal/identity/domain"
)

// Repository defines persistence for identities and identity providers.
type Repository interface {
	// GetProvider returns the provider for (type, externalID, orgID), or nil if not found.
	GetProvider(ctx context.Context, typ domain.ProviderType, externalID, orgID string) (*domain.IdentityProvider, error)
	CreateProvider(ctx context.Context, p *domain.IdentityProvider) error

	GetByUserAndProvider(ctx context.Context, userID, idpID string) (*domain.Identity, error)
	GetByExternalIDAndProvider(ctx context.Context, externalID, idpID string) (*domain.Identity, error)
	Create(ctx context.Context, i *domain.Identity) error
	Update(ctx context.Context, id string, u domain.IdentityUpdate) error
	Delete(ctx context.Context, id string) error
}
