// Package useremail mirrors a new account's email into the user_emails table.
package useremail

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"slack-identity-linker/internal/user/domain"
	emaildomain "slack-identity-linker/internal/useremail/domain"
	"slack-identity-linker/internal/useremail/repository"
)

// HookName is the name the receiver registers under on the user service.
const HookName = "create_user_email"

// Creator is the minimal user email repository needed by the receiver.
type Creator interface {
	Create(ctx context.Context, e *emaildomain.UserEmail) error
}

// CreateOnUserCreated returns a user-created hook that inserts the user's email.
// A duplicate (user, email) row is expected under concurrent account creation and is ignored.
func CreateOnUserCreated(repo Creator) func(ctx context.Context, u *domain.User) error {
	return func(ctx context.Context, u *domain.User) error {
		err := repo.Create(ctx, &emaildomain.UserEmail{
			ID:        uuid.New().String(),
			UserID:    u.ID,
			Email:     u.Email,
			CreatedAt: time.Now().UTC(),
		})
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return err
	}
}
