package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"slack-identity-linker/internal/identity/domain"
)

const identityColumns = `id, user_id, idp_id, external_id, status, date_verified, created_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an identity repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetProvider returns the identity provider for the given type, external id and scope, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetProvider(ctx context.Context, typ domain.ProviderType, externalID, orgID string) (*domain.IdentityProvider, error) {
	var p domain.IdentityProvider
	var t string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, type, external_id, org_id, created_at
		FROM identity_providers
		WHERE type = $1 AND external_id = $2 AND org_id = $3`,
		string(typ), externalID, orgID,
	).Scan(&p.ID, &t, &p.ExternalID, &p.OrgID, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.Type = domain.ProviderType(t)
	return &p, nil
}

// CreateProvider persists the identity provider. The provider must have ID set.
func (r *PostgresRepository) CreateProvider(ctx context.Context, p *domain.IdentityProvider) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO identity_providers (id, type, external_id, org_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
		p.ID, string(p.Type), p.ExternalID, p.OrgID, p.CreatedAt)
	return err
}

// GetByUserAndProvider returns the identity for the given user and provider, or nil if not found.
// When duplicate rows exist the oldest is returned.
func (r *PostgresRepository) GetByUserAndProvider(ctx context.Context, userID, idpID string) (*domain.Identity, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE user_id = $1 AND idp_id = $2 ORDER BY created_at LIMIT 1`,
		userID, idpID)
	return scanIdentity(row)
}

// GetByExternalIDAndProvider returns the identity for the given external id and provider, or nil if not found.
// When duplicate rows exist the oldest is returned.
func (r *PostgresRepository) GetByExternalIDAndProvider(ctx context.Context, externalID, idpID string) (*domain.Identity, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE external_id = $1 AND idp_id = $2 ORDER BY created_at LIMIT 1`,
		externalID, idpID)
	return scanIdentity(row)
}

// Create persists the identity to the database. The identity must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, i *domain.Identity) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO identities (`+identityColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		i.ID, i.UserID, i.IdpID, i.ExternalID, string(i.Status), nullTime(i.DateVerified), i.CreatedAt)
	return err
}

// Update applies u to the identity with the given id. Nil UserID/ExternalID are left unchanged.
func (r *PostgresRepository) Update(ctx context.Context, id string, u domain.IdentityUpdate) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE identities
		SET user_id = COALESCE($2, user_id),
		    external_id = COALESCE($3, external_id),
		    status = $4,
		    date_verified = $5
		WHERE id = $1`,
		id, nullString(u.UserID), nullString(u.ExternalID), string(u.Status), u.DateVerified)
	return err
}

// Delete removes the identity with the given id. Deleting a missing row is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM identities WHERE id = $1`, id)
	return err
}

func scanIdentity(row *sql.Row) (*domain.Identity, error) {
	var i domain.Identity
	var status string
	var verified sql.NullTime
	if err := row.Scan(&i.ID, &i.UserID, &i.IdpID, &i.ExternalID, &status, &verified, &i.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	i.Status = domain.IdentityStatus(status)
	if verified.Valid {
		t := verified.Time
		i.DateVerified = &t
	}
	return &i, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
