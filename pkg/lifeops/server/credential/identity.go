package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc"
	"golang.org/x/oauth2"
)

var ErrNoEmail = errors.New("identity provider returned no email")

// IdentityResolver finds the email address the token was issued to.
type IdentityResolver interface {
	Email(ctx context.Context, token *oauth2.Token) (string, error)
}

// OIDCIdentity reads the email claim of a verified id_token and falls back to the
// provider's userinfo endpoint when the token response carries none.
type OIDCIdentity struct {
	Provider *oidc.Provider
	Verifier *oidc.IDTokenVerifier
}

func NewOIDCIdentity(provider *oidc.Provider, clientID string) *OIDCIdentity {
	return &OIDCIdentity{
		Provider: provider,
		Verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}
}

func (o *OIDCIdentity) Email(ctx context.Context, token *oauth2.Token) (string, error) {
	if rawIDToken, ok := token.Extra("id_token").(string); ok && rawIDToken != "" {
		idToken, err := o.Verifier.Verify(ctx, rawIDToken)
		if err != nil {
			return "", fmt.Errorf("error verifying id_token: %w", err)
		}
		var claims struct {
			Email string `json:"email"`
		}
		if err = idToken.Claims(&claims); err != nil {
			return "", fmt.Errorf("error parsing id_token claims: %w", err)
		}
		if claims.Email != "" {
			return claims.Email, nil
		}
	}

	info, err := o.Provider.UserInfo(ctx, oauth2.StaticTokenSource(token))
	if err != nil {
		return "", fmt.Errorf("error fetching userinfo: %w", err)
	}
	if info.Email == "" {
		return "", ErrNoEmail
	}
	return info.Email, nil
}
