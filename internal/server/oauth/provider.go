// Package oauth drives the browser login handshake: it mints a correlation
// token, sends the user to the identity provider and binds the returned
// identity to a session.
package oauth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"golang.org/x/oauth2"
)

// Provider is an identity provider as seen by the Coordinator.
type Provider interface {
	// AuthURL returns the authorization endpoint URL carrying state.
	AuthURL(state string) string
	// Exchange trades an authorization code for identity claims.
	Exchange(ctx context.Context, code string) (models.Claims, error)
}

// OIDCProvider is a Provider backed by OpenID Connect discovery.
type OIDCProvider struct {
	config   *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewOIDCProvider performs discovery against issuer.
func NewOIDCProvider(ctx context.Context, issuer, clientID, clientSecret, redirectURL string) (*OIDCProvider, error) {
	p, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery for %s: %w", issuer, err)
	}

	return &OIDCProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     p.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
		verifier: p.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

func (p *OIDCProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state)
}

type idTokenClaims struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

func (p *OIDCProvider) Exchange(ctx context.Context, code string) (models.Claims, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return models.Claims{}, fmt.Errorf("token exchange: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return models.Claims{}, fmt.Errorf("no id_token in token response")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return models.Claims{}, fmt.Errorf("verify id_token: %w", err)
	}

	var c idTokenClaims
	if err := idToken.Claims(&c); err != nil {
		return models.Claims{}, fmt.Errorf("decode id_token claims: %w", err)
	}

	return models.Claims{Email: c.Email, Sub: c.Sub, Avatar: c.Picture}, nil
}
