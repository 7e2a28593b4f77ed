package sso

import (
	"context"
	"fmt"
)

// Provider drives one federated login flow.
type Provider interface {
	// Name returns the provider's configured name (e.g. "google")
	Name() string

	// Type returns the provider protocol
	Type() ProviderType

	// AuthCodeURL builds the provider's authorization endpoint URL for the
	// redirect step. It changes no local state.
	AuthCodeURL(state string) string

	// Authenticate exchanges an authorization code for the provider's
	// stable subject. All failures collapse to ErrAuthorizationFailed.
	Authenticate(ctx context.Context, code string) (*Subject, error)

	// ValidateConfig checks the provider configuration
	ValidateConfig() error
}

// NewProvider creates a provider instance from its configuration
func NewProvider(ctx context.Context, config *ProviderConfig) (Provider, error) {
	if config.Name == "" {
		return nil, fmt.Errorf("provider name is required")
	}

	switch config.ProviderType {
	case ProviderTypeOAuth2:
		return NewOAuth2Provider(config)
	case ProviderTypeOIDC:
		return NewOIDCProvider(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", config.ProviderType)
	}
}
