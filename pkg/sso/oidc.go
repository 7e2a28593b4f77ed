package sso

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// OIDCProvider implements federated login over OpenID Connect
type OIDCProvider struct {
	config       *ProviderConfig
	provider     *oidc.Provider
	verifier     *oidc.IDTokenVerifier
	oauth2Config *oauth2.Config
	timeout      time.Duration
}

// NewOIDCProvider creates a new OIDC provider. Discovery happens here, so
// construction needs the issuer to be reachable.
func NewOIDCProvider(ctx context.Context, config *ProviderConfig) (*OIDCProvider, error) {
	if config.OIDCConfig == nil {
		return nil, fmt.Errorf("OIDC config is required")
	}

	provider, err := oidc.NewProvider(ctx, config.OIDCConfig.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID: config.OIDCConfig.ClientID,
	})

	oauth2Config := &oauth2.Config{
		ClientID:     config.OIDCConfig.ClientID,
		ClientSecret: config.OIDCConfig.ClientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  config.OIDCConfig.RedirectURL,
		Scopes:       config.OIDCConfig.Scopes,
	}

	return &OIDCProvider{
		config:       config,
		provider:     provider,
		verifier:     verifier,
		oauth2Config: oauth2Config,
		timeout:      defaultRequestTimeout,
	}, nil
}

// Name returns the provider name
func (p *OIDCProvider) Name() string {
	return p.config.Name
}

// Type returns the provider type
func (p *OIDCProvider) Type() ProviderType {
	return ProviderTypeOIDC
}

// AuthCodeURL builds the authorization endpoint URL for the redirect step
func (p *OIDCProvider) AuthCodeURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state)
}

// Authenticate exchanges the authorization code and takes the subject from
// the verified ID token instead of a userinfo round trip.
func (p *OIDCProvider) Authenticate(ctx context.Context, code string) (*Subject, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", ErrAuthorizationFailed)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	oauth2Token, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: code exchange rejected: %v", ErrAuthorizationFailed, err)
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing id_token in token response", ErrAuthorizationFailed)
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: ID token verification failed: %v", ErrAuthorizationFailed, err)
	}

	if idToken.Subject == "" {
		return nil, fmt.Errorf("%w: ID token has no subject", ErrAuthorizationFailed)
	}

	var claims struct {
		Email    string `json:"email"`
		FullName string `json:"name"`
	}
	// Claims are informational only; a claims decode failure does not fail
	// the login.
	idToken.Claims(&claims)

	return &Subject{
		ProviderName: p.config.Name,
		ID:           idToken.Subject,
		Email:        claims.Email,
		FullName:     claims.FullName,
	}, nil
}

// ValidateConfig validates the OIDC configuration
func (p *OIDCProvider) ValidateConfig() error {
	return validateOIDCConfig(p.config.OIDCConfig)
}

func validateOIDCConfig(cfg *OIDCConfig) error {
	if cfg == nil {
		return fmt.Errorf("OIDC config is required")
	}

	if cfg.ClientID == "" {
		return fmt.Errorf("client_id is required")
	}
	if cfg.ClientSecret == "" {
		return fmt.Errorf("client_secret is required")
	}
	if cfg.IssuerURL == "" {
		return fmt.Errorf("issuer_url is required")
	}
	if cfg.RedirectURL == "" {
		return fmt.Errorf("redirect_url is required")
	}
	if len(cfg.Scopes) == 0 {
		return fmt.Errorf("scopes are required")
	}

	hasOpenID := false
	for _, scope := range cfg.Scopes {
		if scope == "openid" {
			hasOpenID = true
			break
		}
	}
	if !hasOpenID {
		return fmt.Errorf("'openid' scope is required for OIDC")
	}

	return nil
}
