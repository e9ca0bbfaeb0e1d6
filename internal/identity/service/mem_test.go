package service

import (
	"context"
	"sync"

	identitydomain "slack-identity-linker/internal/identity/domain"
	integrationdomain "slack-identity-linker/internal/integration/domain"
	membershipdomain "slack-identity-linker/internal/membership/domain"
	orgdomain "slack-identity-linker/internal/organization/domain"
	"slack-identity-linker/internal/slack"
	telemetrydomain "slack-identity-linker/internal/telemetry/domain"
)

type memMembershipRepo struct {
	m   map[string]*membershipdomain.Membership
	err error
}

func (r *memMembershipRepo) GetMembershipByUserAndOrg(ctx context.Context, userID, orgID string) (*membershipdomain.Membership, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.m[userID+"|"+orgID], nil
}

type memOrgRepo struct {
	m map[string]*orgdomain.Org
}

func (r *memOrgRepo) GetOrganizationByID(ctx context.Context, id string) (*orgdomain.Org, error) {
	return r.m[id], nil
}

type memIntegrationRepo struct {
	m    map[string]*integrationdomain.Integration
	orgs map[string]string // integration id + "|" + org id
}

func (r *memIntegrationRepo) GetForOrganization(ctx context.Context, id, orgID string) (*integrationdomain.Integration, error) {
	if _, ok := r.orgs[id+"|"+orgID]; !ok {
		return nil, nil
	}
	return r.m[id], nil
}

// memIdentityRepo keeps rows in insertion order so lookups return the oldest match, like the
// Postgres repository.
type memIdentityRepo struct {
	mu        sync.Mutex
	providers []*identitydomain.IdentityProvider
	rows      []*identitydomain.Identity
	getErr    error
	deleted   []string
}

func (r *memIdentityRepo) GetProvider(ctx context.Context, typ identitydomain.ProviderType, externalID, orgID string) (*identitydomain.IdentityProvider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, p := range r.providers {
		if p.Type == typ && p.ExternalID == externalID && p.OrgID == orgID {
			return p, nil
		}
	}
	return nil, nil
}

func (r *memIdentityRepo) find(match func(*identitydomain.Identity) bool) *identitydomain.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, i := range r.rows {
		if match(i) {
			c := *i
			return &c
		}
	}
	return nil
}

func (r *memIdentityRepo) GetByUserAndProvider(ctx context.Context, userID, idpID string) (*identitydomain.Identity, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.find(func(i *identitydomain.Identity) bool { return i.UserID == userID && i.IdpID == idpID }), nil
}

func (r *memIdentityRepo) GetByExternalIDAndProvider(ctx context.Context, externalID, idpID string) (*identitydomain.Identity, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.find(func(i *identitydomain.Identity) bool { return i.ExternalID == externalID && i.IdpID == idpID }), nil
}

func (r *memIdentityRepo) Create(ctx context.Context, i *identitydomain.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *i
	r.rows = append(r.rows, &c)
	return nil
}

func (r *memIdentityRepo) Update(ctx context.Context, id string, u identitydomain.IdentityUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, i := range r.rows {
		if i.ID != id {
			continue
		}
		if u.UserID != nil {
			i.UserID = *u.UserID
		}
		if u.ExternalID != nil {
			i.ExternalID = *u.ExternalID
		}
		i.Status = u.Status
		t := u.DateVerified
		i.DateVerified = &t
	}
	return nil
}

func (r *memIdentityRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for n, i := range r.rows {
		if i.ID == id {
			r.rows = append(r.rows[:n], r.rows[n+1:]...)
			r.deleted = append(r.deleted, id)
			return nil
		}
	}
	return nil
}

func (r *memIdentityRepo) byProvider(idpID string) []identitydomain.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []identitydomain.Identity
	for _, i := range r.rows {
		if i.IdpID == idpID {
			out = append(out, *i)
		}
	}
	return out
}

type fakeNotifier struct {
	mu    sync.Mutex
	resp  *slack.Response
	err   error
	calls []string
}

func (n *fakeNotifier) PostEphemeral(ctx context.Context, responseURL, text string) (*slack.Response, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, responseURL+" "+text)
	if n.err != nil {
		return nil, n.err
	}
	if n.resp == nil {
		return &slack.Response{OK: true, Body: `{"ok":true}`}, nil
	}
	return n.resp, nil
}

type auditCall struct {
	orgID, userID, action, resource, metadata string
}

type recordingAudit struct {
	mu    sync.Mutex
	calls []auditCall
}

func (a *recordingAudit) LogEvent(ctx context.Context, orgID, userID, action, resource, metadata string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, auditCall{orgID, userID, action, resource, metadata})
}

type chanEmitter struct {
	events chan *telemetrydomain.Event
}

func (e *chanEmitter) Emit(ctx context.Context, event *telemetrydomain.Event) error {
	e.events <- event
	return nil
}
