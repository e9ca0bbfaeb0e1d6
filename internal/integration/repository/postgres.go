package repository

import (
	"context"
	"database/sql"
	"errors"

	"slack-identity-linker/internal/integration/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an integration repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetForOrganization returns the integration for id if it is associated with orgID, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetForOrganization(ctx context.Context, id, orgID string) (*domain.Integration, error) {
	var i domain.Integration
	var status string
	err := r.db.QueryRowContext(ctx, `
		SELECT i.id, i.provider, i.external_id, i.name, i.status, i.created_at
		FROM integrations i
		JOIN organization_integrations oi ON oi.integration_id = i.id
		WHERE i.id = $1 AND oi.org_id = $2`,
		id, orgID,
	).Scan(&i.ID, &i.Provider, &i.ExternalID, &i.Name, &status, &i.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	i.Status = domain.Status(status)
	return &i, nil
}

// Create persists the integration. The integration must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, i *domain.Integration) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO integrations (id, provider, external_id, name, status, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		i.ID, i.Provider, i.ExternalID, i.Name, string(i.Status), i.CreatedAt)
	return err
}

// AddOrganization associates the integration with an organization. Re-adding is a no-op.
func (r *PostgresRepository) AddOrganization(ctx context.Context, oi *domain.OrganizationIntegration) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO organization_integrations (integration_id, org_id, created_at) VALUES ($1, $2, $3)
		 ON CONFLICT (integration_id, org_id) DO NOTHING`,
		oi.IntegrationID, oi.OrgID, oi.CreatedAt)
	return err
}
