package repository

import (
	"context"
	"errors"

	"slack-identity-linker/internal/useremail/domain"
)

// ErrDuplicate is returned by Create when (user_id, email) already exists.
var ErrDuplicate = errors.New("user email already exists")

// Repository defines persistence for user emails.
type Repository interface {
	Create(ctx context.Context, e *domain.UserEmail) error
	ListByUser(ctx context.Context, userID string) ([]*domain.UserEmail, error)
}
