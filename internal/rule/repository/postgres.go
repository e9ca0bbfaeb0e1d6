package repository

import (
	"context"
	"database/sql"
	"errors"

	"slack-identity-linker/internal/rule/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a rule repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateRule persists the rule. The rule must have ID set.
func (r *PostgresRepository) CreateRule(ctx context.Context, rule *domain.Rule) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO rules (id, org_id, label, status, created_at) VALUES ($1, $2, $3, $4, $5)`,
		rule.ID, rule.OrgID, rule.Label, string(rule.Status), rule.CreatedAt)
	return err
}

// CreateNeglectedRule persists n and sets its generated ID.
func (r *PostgresRepository) CreateNeglectedRule(ctx context.Context, n *domain.NeglectedRule) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO neglected_rules (disable_date, opted_out, sent_initial_email_date, sent_final_email_date, org_id, rule_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		n.DisableDate, n.OptedOut, n.SentInitialEmailDate, n.SentFinalEmailDate, n.OrgID, n.RuleID,
	).Scan(&n.ID)
}

// GetNeglectedRule returns the newest neglected-rule record for the org and rule, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetNeglectedRule(ctx context.Context, orgID, ruleID string) (*domain.NeglectedRule, error) {
	var n domain.NeglectedRule
	err := r.db.QueryRowContext(ctx, `
		SELECT id, disable_date, opted_out, sent_initial_email_date, sent_final_email_date, org_id, rule_id
		FROM neglected_rules
		WHERE org_id = $1 AND rule_id = $2
		ORDER BY id DESC
		LIMIT 1`,
		orgID, ruleID,
	).Scan(&n.ID, &n.DisableDate, &n.OptedOut, &n.SentInitialEmailDate, &n.SentFinalEmailDate, &n.OrgID, &n.RuleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

// SetOptedOut records whether the org opted out of disabling the rule.
func (r *PostgresRepository) SetOptedOut(ctx context.Context, id int64, optedOut bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE neglected_rules SET opted_out = $2 WHERE id = $1`, id, optedOut)
	return err
}
