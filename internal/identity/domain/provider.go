package domain

import "time"

// GlobalOrgID is the org_id of identity providers that are not scoped to one organization.
const GlobalOrgID = "0"

// ProviderType names the external identity namespace.
type ProviderType string

const ProviderTypeSlack ProviderType = "slack"

// IdentityProvider is one (type, external workspace id, scope) namespace for identities.
// OrgID is GlobalOrgID for the global scope, or the owning organization for the legacy scope.
type IdentityProvider struct {
	ID         string
	Type       ProviderType
	ExternalID string
	OrgID      string
	CreatedAt  time.Time
}

// Scope is which of the two coexisting provider scopes a record belongs to.
type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeLegacy Scope = "legacy"
)

// Scope returns ScopeGlobal when the provider is not tied to an organization.
func (p *IdentityProvider) Scope() Scope {
	if p.OrgID == GlobalOrgID {
		return ScopeGlobal
	}
	return ScopeLegacy
}
