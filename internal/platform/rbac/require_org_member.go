// Package rbac holds organization-scoped access checks shared by services.
package rbac

import (
	"context"
	"errors"
	"fmt"

	"slack-identity-linker/internal/membership/domain"
)

var (
	// ErrUnauthenticated is returned when no user or org id is supplied.
	ErrUnauthenticated = errors.New("org and user context required")
	// ErrNotOrgMember is returned when the user has no membership in the org.
	ErrNotOrgMember = errors.New("not a member of this organization")
)

// OrgMembershipGetter is the minimal membership lookup the checks need.
type OrgMembershipGetter interface {
	GetMembershipByUserAndOrg(ctx context.Context, userID, orgID string) (*domain.Membership, error)
}

// RequireOrgMember ensures userID is a member of orgID (any role) and returns the membership.
// Repository failures are wrapped; callers distinguish them from ErrNotOrgMember with errors.Is.
func RequireOrgMember(ctx context.Context, getter OrgMembershipGetter, userID, orgID string) (*domain.Membership, error) {
	if userID == "" || orgID == "" {
		return nil, ErrUnauthenticated
	}
	m, err := getter.GetMembershipByUserAndOrg(ctx, userID, orgID)
	if err != nil {
		return nil, fmt.Errorf("resolve membership: %w", err)
	}
	if m == nil {
		return nil, ErrNotOrgMember
	}
	return m, nil
}
