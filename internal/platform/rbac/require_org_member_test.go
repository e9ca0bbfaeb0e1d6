package rbac

import (
	"context"
	"errors"
	"testing"

	"slack-identity-linker/internal/membership/domain"
)

// mockMembershipGetter implements OrgMembershipGetter for RequireOrgMember tests.
type mockMembershipGetter struct {
	memberships map[string]*domain.Membership
	err         error
}

func (m *mockMembershipGetter) GetMembershipByUserAndOrg(ctx context.Context, userID, orgID string) (*domain.Membership, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.memberships[userID+":"+orgID], nil
}

func TestRequireOrgMember_Success_AnyRole(t *testing.T) {
	for _, role := range []domain.Role{domain.RoleOwner, domain.RoleAdmin, domain.RoleMember} {
		t.Run(string(role), func(t *testing.T) {
			getter := &mockMembershipGetter{
				memberships: map[string]*domain.Membership{
					"user-1:org-1": {ID: "m1", UserID: "user-1", OrgID: "org-1", Role: role},
				},
			}
			m, err := RequireOrgMember(context.Background(), getter, "user-1", "org-1")
			if err != nil {
				t.Fatalf("RequireOrgMember: %v", err)
			}
			if m.Role != role {
				t.Errorf("role = %q, want %q", m.Role, role)
			}
		})
	}
}

func TestRequireOrgMember_Failures(t *testing.T) {
	dbErr := errors.New("database error")
	testCases := []struct {
		name    string
		getter  *mockMembershipGetter
		userID  string
		orgID   string
		wantErr error
	}{
		{"not member", &mockMembershipGetter{}, "user-1", "org-1", ErrNotOrgMember},
		{"member of other org", &mockMembershipGetter{memberships: map[string]*domain.Membership{
			"user-1:org-2": {ID: "m1", UserID: "user-1", OrgID: "org-2", Role: domain.RoleMember},
		}}, "user-1", "org-1", ErrNotOrgMember},
		{"empty user", &mockMembershipGetter{}, "", "org-1", ErrUnauthenticated},
		{"empty org", &mockMembershipGetter{}, "user-1", "", ErrUnauthenticated},
		{"repository error", &mockMembershipGetter{err: dbErr}, "user-1", "org-1", dbErr},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := RequireOrgMember(context.Background(), tc.getter, tc.userID, tc.orgID)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}
