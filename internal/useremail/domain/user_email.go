package domain

import "time"

// UserEmail is a secondary email record for a user; one row per (user, email).
type UserEmail struct {
	ID         string
	UserID     string
	Email      string
	IsVerified bool
	CreatedAt  time.Time
}
