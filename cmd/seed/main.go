// seed inserts development sample data for local testing and prints a linking URL for it.
// Idempotent: skips inserts if the dev user (dev@example.com) already exists.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"slack-identity-linker/internal/config"
	"slack-identity-linker/internal/db"
	identitydomain "slack-identity-linker/internal/identity/domain"
	identityrepo "slack-identity-linker/internal/identity/repository"
	identityservice "slack-identity-linker/internal/identity/service"
	integrationdomain "slack-identity-linker/internal/integration/domain"
	integrationrepo "slack-identity-linker/internal/integration/repository"
	"slack-identity-linker/internal/logger"
	membershipdomain "slack-identity-linker/internal/membership/domain"
	membershiprepo "slack-identity-linker/internal/membership/repository"
	orgdomain "slack-identity-linker/internal/organization/domain"
	organizationrepo "slack-identity-linker/internal/organization/repository"
	ruledomain "slack-identity-linker/internal/rule/domain"
	rulerepo "slack-identity-linker/internal/rule/repository"
	"slack-identity-linker/internal/security"
	userrepo "slack-identity-linker/internal/user/repository"
	userservice "slack-identity-linker/internal/user/service"
	"slack-identity-linker/internal/useremail"
	useremailrepo "slack-identity-linker/internal/useremail/repository"
)

const (
	devUserEmail       = "dev@example.com"
	devOrgID           = "dev-org-001"
	devMembershipID    = "dev-membership-001"
	devIntegrationID   = "dev-integration-001"
	devSlackTeamID     = "T0DEV0001"
	devGlobalIdPID     = "dev-idp-global-001"
	devLegacyIdPID     = "dev-idp-legacy-001"
	devRuleID          = "dev-rule-001"
	devAccessTokenTTL  = 24 * time.Hour
	neglectedRuleGrace = 7 * 24 * time.Hour
)

func main() {
	slackID := flag.String("slack-id", "U0DEV0001", "Slack user id embedded in the printed linking URL")
	channelID := flag.String("channel-id", "C0DEV0001", "Slack channel id embedded in the printed linking URL")
	responseURL := flag.String("response-url", "https://hooks.slack.com/actions/dev", "Slack response URL embedded in the printed linking URL")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	zl, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(conn)
	existing, err := users.GetByEmail(ctx, devUserEmail)
	if err != nil {
		log.Fatalf("get dev user: %v", err)
	}
	userID := ""
	if existing != nil {
		zl.Info("seed already applied; skipping inserts", zap.String("email", devUserEmail))
		userID = existing.ID
	} else {
		userID, err = seed(ctx, conn, zl)
		if err != nil {
			log.Fatalf("seed: %v", err)
		}
		zl.Info("seed completed", zap.String("user_id", userID))
	}

	signer, err := security.NewSigner(cfg.LinkSigningSecret, cfg.LinkTTL())
	if err != nil {
		log.Fatalf("signer: %v", err)
	}
	linkURL, err := identityservice.BuildLinkingURL(cfg.BaseURL, signer, security.LinkParams{
		IntegrationID:  devIntegrationID,
		OrganizationID: devOrgID,
		SlackID:        *slackID,
		ChannelID:      *channelID,
		ResponseURL:    *responseURL,
	})
	if err != nil {
		log.Fatalf("linking url: %v", err)
	}
	fmt.Printf("Linking URL: %s\n", linkURL)

	if cfg.JWTPrivateKey == "" {
		fmt.Println("JWT_PRIVATE_KEY is not set; no dev access token minted.")
		return
	}
	priv, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatalf("private key: %v", err)
	}
	tokens := security.NewTokenProvider(priv, priv.Public(), cfg.JWTIssuer, cfg.JWTAudience, devAccessTokenTTL)
	access, expiresAt, err := tokens.IssueAccess("dev-session", userID, devOrgID)
	if err != nil {
		log.Fatalf("issue access token: %v", err)
	}
	fmt.Printf("Dev access token (expires %s):\n%s\n", expiresAt.Format(time.RFC3339), access)
}

// seed creates the dev user (with its mirrored email), an organization with a Slack integration
// registered under both provider scopes, and a neglected rule.
func seed(ctx context.Context, conn *sql.DB, zl *zap.Logger) (string, error) {
	now := time.Now().UTC()

	users := userservice.NewService(userrepo.NewPostgresRepository(conn), zl)
	users.OnCreated(useremail.HookName, useremail.CreateOnUserCreated(useremailrepo.NewPostgresRepository(conn)))
	u, err := users.Create(ctx, devUserEmail, "Dev User")
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	org := &orgdomain.Org{ID: devOrgID, Name: "Dev Org", CreatedAt: now}
	if err := org.Validate(); err != nil {
		return "", err
	}
	if err := organizationrepo.NewPostgresRepository(conn).CreateOrganization(ctx, org); err != nil {
		return "", fmt.Errorf("create organization: %w", err)
	}
	if err := membershiprepo.NewPostgresRepository(conn).CreateMembership(ctx, &membershipdomain.Membership{
		ID: devMembershipID, UserID: u.ID, OrgID: devOrgID, Role: membershipdomain.RoleOwner, CreatedAt: now,
	}); err != nil {
		return "", fmt.Errorf("create membership: %w", err)
	}

	integrations := integrationrepo.NewPostgresRepository(conn)
	if err := integrations.Create(ctx, &integrationdomain.Integration{
		ID:         devIntegrationID,
		Provider:   integrationdomain.ProviderSlack,
		ExternalID: devSlackTeamID,
		Name:       "Dev Slack",
		Status:     integrationdomain.StatusActive,
		CreatedAt:  now,
	}); err != nil {
		return "", fmt.Errorf("create integration: %w", err)
	}
	if err := integrations.AddOrganization(ctx, &integrationdomain.OrganizationIntegration{
		IntegrationID: devIntegrationID, OrgID: devOrgID, CreatedAt: now,
	}); err != nil {
		return "", fmt.Errorf("attach integration: %w", err)
	}

	identities := identityrepo.NewPostgresRepository(conn)
	for _, p := range []*identitydomain.IdentityProvider{
		{ID: devGlobalIdPID, Type: identitydomain.ProviderTypeSlack, ExternalID: devSlackTeamID, OrgID: identitydomain.GlobalOrgID, CreatedAt: now},
		{ID: devLegacyIdPID, Type: identitydomain.ProviderTypeSlack, ExternalID: devSlackTeamID, OrgID: devOrgID, CreatedAt: now},
	} {
		if err := identities.CreateProvider(ctx, p); err != nil {
			return "", fmt.Errorf("create %s identity provider: %w", p.Scope(), err)
		}
	}

	rules := rulerepo.NewPostgresRepository(conn)
	rule := &ruledomain.Rule{ID: devRuleID, OrgID: devOrgID, Label: "Dev error rate", CreatedAt: now}
	if err := rule.Validate(); err != nil {
		return "", err
	}
	if err := rules.CreateRule(ctx, rule); err != nil {
		return "", fmt.Errorf("create rule: %w", err)
	}
	neglected := &ruledomain.NeglectedRule{
		OrgID:                devOrgID,
		RuleID:               devRuleID,
		DisableDate:          now.Add(neglectedRuleGrace),
		SentInitialEmailDate: now,
		SentFinalEmailDate:   now.Add(neglectedRuleGrace - 24*time.Hour),
	}
	if err := neglected.Validate(); err != nil {
		return "", err
	}
	if err := rules.CreateNeglectedRule(ctx, neglected); err != nil {
		return "", fmt.Errorf("create neglected rule: %w", err)
	}
	return u.ID, nil
}
