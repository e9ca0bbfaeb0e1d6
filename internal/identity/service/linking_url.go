package service

import (
	"errors"
	"strings"

	"slack-identity-linker/internal/security"
)

// LinkPathPrefix is the route prefix of the linking page; the signed token is the next path segment.
const LinkPathPrefix = "/extensions/slack/link-identity/"

// TokenSigner signs link parameters.
type TokenSigner interface {
	Sign(params security.LinkParams) (string, error)
}

// BuildLinkingURL returns the absolute URL a Slack bot hands to a user to link their account.
func BuildLinkingURL(baseURL string, signer TokenSigner, params security.LinkParams) (string, error) {
	if baseURL == "" {
		return "", errors.New("linking url: base url is empty")
	}
	token, err := signer.Sign(params)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(baseURL, "/") + LinkPathPrefix + token + "/", nil
}
