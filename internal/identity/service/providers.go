package service

import (
	"context"
	"fmt"

	"slack-identity-linker/internal/identity/domain"
)

// ProviderRepo looks up identity providers by type, external id and scope.
type ProviderRepo interface {
	GetProvider(ctx context.Context, typ domain.ProviderType, externalID, orgID string) (*domain.IdentityProvider, error)
}

// ResolveProviders returns the Slack identity providers for the workspace externalID that apply to orgID:
// the global one (org "0") first, then the legacy one owned by orgID. Either may be missing.
// While both scopes coexist, a link writes identities under every provider returned here.
func ResolveProviders(ctx context.Context, repo ProviderRepo, externalID, orgID string) ([]*domain.IdentityProvider, error) {
	var out []*domain.IdentityProvider
	for _, scopeOrg := range []string{domain.GlobalOrgID, orgID} {
		p, err := repo.GetProvider(ctx, domain.ProviderTypeSlack, externalID, scopeOrg)
		if err != nil {
			return nil, fmt.Errorf("get identity provider org=%s: %w", scopeOrg, err)
		}
		if p != nil {
			out = append(out, p)
		}
	}
	return out, nil
}
