package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidLinkToken is returned when a signed link token fails verification for any reason.
var ErrInvalidLinkToken = errors.New("invalid link token")

// linkTokenIssuer scopes link tokens so an access token can never be replayed as one.
const linkTokenIssuer = "slack-link-identity"

// LinkParams is what a chat bot hands to the linking page.
type LinkParams struct {
	IntegrationID  string `json:"integration_id"`
	OrganizationID string `json:"organization_id"`
	SlackID        string `json:"slack_id"`
	ChannelID      string `json:"channel_id"`
	ResponseURL    string `json:"response_url"`
}

type linkClaims struct {
	jwt.RegisteredClaims
	LinkParams
}

// Signer produces and verifies URL-safe HMAC-SHA256 signed link tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner returns a Signer keyed by secret whose tokens expire after ttl.
func NewSigner(secret string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("security: link signing secret is empty")
	}
	if ttl <= 0 {
		return nil, errors.New("security: link token ttl must be positive")
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Sign encodes params into a signed token.
func (s *Signer) Sign(params LinkParams) (string, error) {
	now := s.now().UTC()
	claims := linkClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    linkTokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		LinkParams: params,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Unsign verifies token and returns the params it carries.
func (s *Signer) Unsign(token string) (LinkParams, error) {
	claims := &linkClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(linkTokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return LinkParams{}, ErrInvalidLinkToken
	}
	p := claims.LinkParams
	if p.IntegrationID == "" || p.OrganizationID == "" || p.SlackID == "" {
		return LinkParams{}, ErrInvalidLinkToken
	}
	return p, nil
}
