// Package service implements linking a platform account to a Slack user.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"slack-identity-linker/internal/audit"
	identitydomain "slack-identity-linker/internal/identity/domain"
	integrationdomain "slack-identity-linker/internal/integration/domain"
	membershipdomain "slack-identity-linker/internal/membership/domain"
	orgdomain "slack-identity-linker/internal/organization/domain"
	"slack-identity-linker/internal/platform/rbac"
	"slack-identity-linker/internal/security"
	"slack-identity-linker/internal/slack"
	"slack-identity-linker/internal/telemetry"
	telemetrydomain "slack-identity-linker/internal/telemetry/domain"
)

// Sentinel errors for the link service; the HTTP handler maps them to status codes.
var (
	// ErrNotFound covers every reason a link target cannot be shown to the requester:
	// no membership, integration not attached to the org, or no identity provider.
	ErrNotFound = errors.New("link target not found")
	// ErrUnauthenticated is returned when no requesting user is known.
	ErrUnauthenticated = errors.New("authentication required")
)

// LinkedMessage is the ephemeral acknowledgment posted back to Slack.
const LinkedMessage = "Your Slack identity has been linked to your account. You're good to go!"

// MembershipRepo is the minimal membership repository needed by the link service.
type MembershipRepo interface {
	GetMembershipByUserAndOrg(ctx context.Context, userID, orgID string) (*membershipdomain.Membership, error)
}

// OrgRepo is the minimal organization repository needed by the link service.
type OrgRepo interface {
	GetOrganizationByID(ctx context.Context, id string) (*orgdomain.Org, error)
}

// IntegrationRepo is the minimal integration repository needed by the link service.
type IntegrationRepo interface {
	GetForOrganization(ctx context.Context, id, orgID string) (*integrationdomain.Integration, error)
}

// IdentityRepo is the identity repository needed by the link service.
type IdentityRepo interface {
	ProviderRepo
	GetByUserAndProvider(ctx context.Context, userID, idpID string) (*identitydomain.Identity, error)
	GetByExternalIDAndProvider(ctx context.Context, externalID, idpID string) (*identitydomain.Identity, error)
	Create(ctx context.Context, i *identitydomain.Identity) error
	Update(ctx context.Context, id string, u identitydomain.IdentityUpdate) error
	Delete(ctx context.Context, id string) error
}

// Notifier posts the acknowledgment to the Slack response URL.
type Notifier interface {
	PostEphemeral(ctx context.Context, responseURL, text string) (*slack.Response, error)
}

// LinkTarget is a validated link request: the org and integration the token names, and the
// providers whose identities the link will write.
type LinkTarget struct {
	Params      security.LinkParams
	Org         *orgdomain.Org
	Integration *integrationdomain.Integration
	Providers   []*identitydomain.IdentityProvider
}

// LinkResult is the outcome of a successful link.
type LinkResult struct {
	ChannelID  string
	TeamID     string
	Identities []*identitydomain.Identity
}

// Option configures optional LinkService collaborators.
type Option func(*LinkService)

// WithAuditLogger records an audit event per successful link.
func WithAuditLogger(l audit.AuditLogger) Option {
	return func(s *LinkService) { s.audit = l }
}

// WithEventEmitter emits a telemetry event per successful link.
func WithEventEmitter(e telemetry.EventEmitter) Option {
	return func(s *LinkService) { s.emitter = e }
}

// WithTracer sets the tracer used for link spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *LinkService) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *LinkService) {
		if l != nil {
			s.log = l
		}
	}
}

// LinkService validates link requests and reconciles identities.
type LinkService struct {
	memberships  MembershipRepo
	orgs         OrgRepo
	integrations IntegrationRepo
	identities   IdentityRepo
	notifier     Notifier
	audit        audit.AuditLogger
	emitter      telemetry.EventEmitter
	tracer       trace.Tracer
	log          *zap.Logger
	now          func() time.Time
}

// NewLinkService returns a LinkService. notifier may be nil to skip the Slack acknowledgment.
func NewLinkService(
	memberships MembershipRepo,
	orgs OrgRepo,
	integrations IntegrationRepo,
	identities IdentityRepo,
	notifier Notifier,
	opts ...Option,
) *LinkService {
	s := &LinkService{
		memberships:  memberships,
		orgs:         orgs,
		integrations: integrations,
		identities:   identities,
		notifier:     notifier,
		tracer:       noop.NewTracerProvider().Tracer(""),
		log:          zap.NewNop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Prepare checks that userID may link within params' organization and integration, and resolves
// the identity providers. Every rejection is ErrNotFound; storage failures are returned wrapped.
func (s *LinkService) Prepare(ctx context.Context, userID string, params security.LinkParams) (*LinkTarget, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if _, err := rbac.RequireOrgMember(ctx, s.memberships, userID, params.OrganizationID); err != nil {
		if errors.Is(err, rbac.ErrNotOrgMember) || errors.Is(err, rbac.ErrUnauthenticated) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	org, err := s.orgs.GetOrganizationByID(ctx, params.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("get organization: %w", err)
	}
	if org == nil {
		return nil, ErrNotFound
	}
	integration, err := s.integrations.GetForOrganization(ctx, params.IntegrationID, org.ID)
	if err != nil {
		return nil, fmt.Errorf("get integration: %w", err)
	}
	if integration == nil {
		return nil, ErrNotFound
	}
	providers, err := ResolveProviders(ctx, s.identities, integration.ExternalID, org.ID)
	if err != nil {
		return nil, err
	}
	if len(providers) == 0 {
		return nil, ErrNotFound
	}
	return &LinkTarget{Params: params, Org: org, Integration: integration, Providers: providers}, nil
}

// Link binds userID to the target's Slack user under every resolved provider, then acknowledges in Slack.
// Providers are reconciled in order without a surrounding transaction; a failure stops at that provider.
// The acknowledgment, audit and telemetry are best effort and never fail the link.
func (s *LinkService) Link(ctx context.Context, userID string, target *LinkTarget) (*LinkResult, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	ctx, span := s.tracer.Start(ctx, "identity.link", trace.WithAttributes(
		attribute.String("org.id", target.Org.ID),
		attribute.String("integration.id", target.Integration.ID),
		attribute.Int("identity.providers", len(target.Providers)),
	))
	defer span.End()

	result := &LinkResult{
		ChannelID: target.Params.ChannelID,
		TeamID:    target.Integration.ExternalID,
	}
	for _, idp := range target.Providers {
		ident, err := s.reconcileInScope(ctx, userID, target.Params.SlackID, idp)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "reconcile failed")
			return nil, err
		}
		result.Identities = append(result.Identities, ident)
	}

	s.log.Info("identity linked",
		zap.String("user_id", userID),
		zap.String("org_id", target.Org.ID),
		zap.String("integration_id", target.Integration.ID),
		zap.Int("providers", len(target.Providers)),
	)
	s.notify(ctx, target.Params.ResponseURL)
	s.record(ctx, userID, target)
	return result, nil
}

func (s *LinkService) reconcileInScope(ctx context.Context, userID, externalID string, idp *identitydomain.IdentityProvider) (*identitydomain.Identity, error) {
	ctx, span := s.tracer.Start(ctx, "identity.link.scope", trace.WithAttributes(
		attribute.String("identity.scope", string(idp.Scope())),
		attribute.String("identity.provider_id", idp.ID),
	))
	defer span.End()
	ident, err := s.reconcile(ctx, userID, externalID, idp.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reconcile failed")
		return nil, fmt.Errorf("link identity idp=%s: %w", idp.ID, err)
	}
	return ident, nil
}

// reconcile leaves exactly one valid identity binding userID and externalID under idpID.
func (s *LinkService) reconcile(ctx context.Context, userID, externalID, idpID string) (*identitydomain.Identity, error) {
	byUser, err := s.identities.GetByUserAndProvider(ctx, userID, idpID)
	if err != nil {
		return nil, err
	}
	byExternal, err := s.identities.GetByExternalIDAndProvider(ctx, externalID, idpID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	update := identitydomain.IdentityUpdate{Status: identitydomain.IdentityStatusValid, DateVerified: now}

	var target *identitydomain.Identity
	switch {
	case byUser == nil && byExternal == nil:
		ident := &identitydomain.Identity{
			ID:           uuid.New().String(),
			UserID:       userID,
			IdpID:        idpID,
			ExternalID:   externalID,
			Status:       identitydomain.IdentityStatusValid,
			DateVerified: &now,
			CreatedAt:    now,
		}
		if err := s.identities.Create(ctx, ident); err != nil {
			return nil, err
		}
		return ident, nil
	case byUser != nil && byExternal == nil:
		target = byUser
		update.ExternalID = &externalID
	case byUser == nil:
		target = byExternal
		update.UserID = &userID
	case byUser.ID != byExternal.ID:
		if err := s.identities.Delete(ctx, byExternal.ID); err != nil {
			return nil, err
		}
		target = byUser
		update.ExternalID = &externalID
	default:
		target = byUser
	}
	if err := s.identities.Update(ctx, target.ID, update); err != nil {
		return nil, err
	}
	out := *target
	out.UserID = userID
	out.ExternalID = externalID
	out.Status = identitydomain.IdentityStatusValid
	out.DateVerified = &now
	return &out, nil
}

// notify posts the acknowledgment. An expired response URL is expected when the user took long
// to confirm and is not logged.
func (s *LinkService) notify(ctx context.Context, responseURL string) {
	if s.notifier == nil || responseURL == "" {
		return
	}
	resp, err := s.notifier.PostEphemeral(ctx, responseURL, LinkedMessage)
	if err != nil {
		s.log.Error("slack.link-notify.request-error", zap.Error(err))
		return
	}
	if !resp.OK && !resp.Expired() {
		s.log.Error("slack.link-notify.response-error", zap.String("response", resp.Body))
	}
}

func (s *LinkService) record(ctx context.Context, userID string, target *LinkTarget) {
	idpIDs := make([]string, len(target.Providers))
	for i, p := range target.Providers {
		idpIDs[i] = p.ID
	}
	meta, err := json.Marshal(map[string]any{
		"integration_id": target.Integration.ID,
		"slack_id":       target.Params.SlackID,
		"idp_ids":        idpIDs,
	})
	if err != nil {
		s.log.Warn("identity: marshal link metadata", zap.Error(err))
		return
	}
	if s.audit != nil {
		s.audit.LogEvent(ctx, target.Org.ID, userID, audit.ActionIdentityLinked, audit.ResourceIdentity, string(meta))
	}
	telemetry.EmitAsync(s.emitter, &telemetrydomain.Event{
		OrgID:     target.Org.ID,
		UserID:    userID,
		EventType: telemetrydomain.EventIdentityLinked,
		Source:    telemetrydomain.SourceLinker,
		Metadata:  meta,
		CreatedAt: s.now().UTC(),
	}, s.log)
}
