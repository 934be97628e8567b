package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/corkboard/backend/internal/config"
	"golang.org/x/oauth2"
)

// OIDCIdentity is what the IdP asserted about the user after a verified
// code exchange.
type OIDCIdentity struct {
	Subject string
	Email   string
}

// LoginID maps the external identity onto the users table. Email when the
// IdP provides one, otherwise a subject-derived id that cannot collide with
// local logins.
func (i OIDCIdentity) LoginID() string {
	if i.Email != "" {
		return i.Email
	}
	return "oidc:" + i.Subject
}

// OIDCService wraps the external identity provider: authorization-code flow
// with PKCE, and ID-token verification against the provider's keys.
type OIDCService struct {
	verifier *oidc.IDTokenVerifier
	oauth    oauth2.Config
	log      *slog.Logger
}

// NewOIDCService returns (nil, nil) when no IdP is configured; the rest of
// the auth stack treats a nil service as "OIDC disabled".
func NewOIDCService(ctx context.Context, cfg config.OIDCConfig, log *slog.Logger) (*OIDCService, error) {
	if cfg.IssuerURL == "" || cfg.ClientID == "" {
		return nil, nil
	}
	if cfg.RedirectURL == "" {
		return nil, fmt.Errorf("%w: OIDC_REDIRECT_URL is required when OIDC is enabled", ErrMisconfigured)
	}

	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery failed: %w", err)
	}

	return &OIDCService{
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		log: log,
	}, nil
}

// NewPKCEVerifier returns a fresh PKCE code verifier for one login attempt.
func (s *OIDCService) NewPKCEVerifier() string {
	return oauth2.GenerateVerifier()
}

// AuthCodeURL builds the IdP redirect carrying state, nonce, and the PKCE
// challenge derived from verifier.
func (s *OIDCService) AuthCodeURL(state, nonce, pkceVerifier string) string {
	return s.oauth.AuthCodeURL(state, oidc.Nonce(nonce), oauth2.S256ChallengeOption(pkceVerifier))
}

// Exchange redeems the authorization code and verifies the returned ID
// token, including the nonce binding.
func (s *OIDCService) Exchange(ctx context.Context, code, pkceVerifier, nonce string) (*OIDCIdentity, error) {
	tok, err := s.oauth.Exchange(ctx, code, oauth2.VerifierOption(pkceVerifier))
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("token response missing id_token")
	}

	idToken, err := s.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("id_token verification failed: %w", err)
	}

	if nonce != "" && idToken.Nonce != nonce {
		return nil, errors.New("id_token nonce mismatch")
	}

	var claims struct {
		Email string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		s.log.Debug("auth.oidc.claims_unreadable", "err", err)
	}

	return &OIDCIdentity{
		Subject: idToken.Subject,
		Email:   claims.Email,
	}, nil
}
