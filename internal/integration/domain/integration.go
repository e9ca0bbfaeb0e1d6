package domain

import "time"

// Integration is a configured connection to an external chat provider. ExternalID is the
// provider's stable team/workspace id. Organizations are attached through OrganizationIntegration.
type Integration struct {
	ID         string
	Provider   string
	ExternalID string
	Name       string
	Status     Status
	CreatedAt  time.Time
}

type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
)

// ProviderSlack is the provider key for Slack workspaces.
const ProviderSlack = "slack"

// ProviderName returns the display name of the integration's provider.
func (i *Integration) ProviderName() string {
	switch i.Provider {
	case ProviderSlack:
		return "Slack"
	case "":
		return "Unknown"
	default:
		return i.Provider
	}
}

// OrganizationIntegration associates an integration with one organization.
type OrganizationIntegration struct {
	IntegrationID string
	OrgID         string
	CreatedAt     time.Time
}
