package repository

import (
	"context"
	"database/sql"

	"slack-identity-linker/internal/db"
	"slack-identity-linker/internal/useremail/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user email repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// Create persists the user email. Returns ErrDuplicate when the (user_id, email) pair exists.
func (r *PostgresRepository) Create(ctx context.Context, e *domain.UserEmail) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_emails (id, user_id, email, is_verified, created_at) VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.UserID, e.Email, e.IsVerified, e.CreatedAt)
	if db.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// ListByUser returns all email records for the user, oldest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*domain.UserEmail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, email, is_verified, created_at FROM user_emails WHERE user_id = $1 ORDER BY created_at`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.UserEmail
	for rows.Next() {
		var e domain.UserEmail
		if err := rows.Scan(&e.ID, &e.UserID, &e.Email, &e.IsVerified, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
