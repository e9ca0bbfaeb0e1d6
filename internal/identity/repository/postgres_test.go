package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"slack-identity-linker/internal/db"
	"slack-identity-linker/internal/db/migrate"
	"slack-identity-linker/internal/identity/domain"
	userdomain "slack-identity-linker/internal/user/domain"
	userrepo "slack-identity-linker/internal/user/repository"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	if err := migrate.Run(dsn, migrate.Up); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Skipf("migrations failed (expected in test environment): %v", err)
	}
	conn, err := db.Open(dsn)
	if err != nil {
		t.Skipf("Database connection failed (expected in test environment): %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func createTestUser(t *testing.T, conn *sql.DB) string {
	t.Helper()
	now := time.Now().UTC()
	u := &userdomain.User{
		ID:        uuid.New().String(),
		Email:     uuid.New().String() + "@example.com",
		Status:    userdomain.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := userrepo.NewPostgresRepository(conn).Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() { _, _ = conn.Exec(`DELETE FROM users WHERE id = $1`, u.ID) })
	return u.ID
}

func TestPostgresRepository_Providers(t *testing.T) {
	conn := openTestDB(t)
	repo := NewPostgresRepository(conn)
	ctx := context.Background()
	team := "T" + uuid.New().String()
	orgID := uuid.New().String()

	for _, scope := range []string{domain.GlobalOrgID, orgID} {
		p := &domain.IdentityProvider{ID: uuid.New().String(), Type: domain.ProviderTypeSlack, ExternalID: team, OrgID: scope, CreatedAt: time.Now().UTC()}
		if err := repo.CreateProvider(ctx, p); err != nil {
			t.Fatalf("CreateProvider(%s): %v", scope, err)
		}
		t.Cleanup(func() { _, _ = conn.Exec(`DELETE FROM identity_providers WHERE id = $1`, p.ID) })
	}

	global, err := repo.GetProvider(ctx, domain.ProviderTypeSlack, team, domain.GlobalOrgID)
	if err != nil || global == nil {
		t.Fatalf("GetProvider(global) = %v, %v", global, err)
	}
	if global.Scope() != domain.ScopeGlobal {
		t.Errorf("scope = %q, want global", global.Scope())
	}
	legacy, err := repo.GetProvider(ctx, domain.ProviderTypeSlack, team, orgID)
	if err != nil || legacy == nil {
		t.Fatalf("GetProvider(legacy) = %v, %v", legacy, err)
	}
	if legacy.ID == global.ID {
		t.Error("scopes should resolve to distinct providers")
	}
	missing, err := repo.GetProvider(ctx, domain.ProviderTypeSlack, team, "other-org")
	if err != nil || missing != nil {
		t.Errorf("GetProvider(other org) = %v, %v; want nil, nil", missing, err)
	}
}

func TestPostgresRepository_IdentityLifecycle(t *testing.T) {
	conn := openTestDB(t)
	repo := NewPostgresRepository(conn)
	ctx := context.Background()
	userA := createTestUser(t, conn)
	userB := createTestUser(t, conn)

	idp := &domain.IdentityProvider{ID: uuid.New().String(), Type: domain.ProviderTypeSlack, ExternalID: "T" + uuid.New().String(), OrgID: domain.GlobalOrgID, CreatedAt: time.Now().UTC()}
	if err := repo.CreateProvider(ctx, idp); err != nil {
		t.Fatalf("CreateProvider: %v", err)
	}
	t.Cleanup(func() { _, _ = conn.Exec(`DELETE FROM identity_providers WHERE id = $1`, idp.ID) })

	ident := &domain.Identity{ID: uuid.New().String(), UserID: userA, IdpID: idp.ID, ExternalID: "U1", Status: domain.IdentityStatusUnknown, CreatedAt: time.Now().UTC()}
	if err := repo.Create(ctx, ident); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByUserAndProvider(ctx, userA, idp.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByUserAndProvider = %v, %v", got, err)
	}
	if got.DateVerified != nil {
		t.Error("new identity should not be verified")
	}

	verified := time.Now().UTC().Truncate(time.Second)
	if err := repo.Update(ctx, ident.ID, domain.IdentityUpdate{UserID: &userB, Status: domain.IdentityStatusValid, DateVerified: verified}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err = repo.GetByExternalIDAndProvider(ctx, "U1", idp.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByExternalIDAndProvider = %v, %v", got, err)
	}
	if got.UserID != userB {
		t.Errorf("user_id = %q, want %q", got.UserID, userB)
	}
	if got.ExternalID != "U1" {
		t.Errorf("external_id = %q, nil update should leave it unchanged", got.ExternalID)
	}
	if got.Status != domain.IdentityStatusValid || got.DateVerified == nil || !got.DateVerified.Equal(verified) {
		t.Errorf("status/date_verified = %q/%v, want valid/%v", got.Status, got.DateVerified, verified)
	}

	if err := repo.Delete(ctx, ident.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, err := repo.GetByUserAndProvider(ctx, userB, idp.ID); err != nil || got != nil {
		t.Errorf("after Delete = %v, %v; want nil, nil", got, err)
	}
	if err := repo.Delete(ctx, ident.ID); err != nil {
		t.Errorf("deleting a missing row should not fail: %v", err)
	}
}
