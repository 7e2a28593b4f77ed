package sso

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// defaultRequestTimeout bounds the server-to-server provider calls (code
// exchange, profile fetch). A provider that never answers must not hang the
// requesting connection.
const defaultRequestTimeout = 10 * time.Second

// OAuth2Provider implements federated login over plain OAuth2 with a
// userinfo endpoint
type OAuth2Provider struct {
	config       *ProviderConfig
	oauth2Config *oauth2.Config
	timeout      time.Duration
}

// NewOAuth2Provider creates a new OAuth2 provider
func NewOAuth2Provider(config *ProviderConfig) (*OAuth2Provider, error) {
	if config.OAuth2Config == nil {
		return nil, fmt.Errorf("OAuth2 config is required")
	}

	oauth2Cfg := &oauth2.Config{
		ClientID:     config.OAuth2Config.ClientID,
		ClientSecret: config.OAuth2Config.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  config.OAuth2Config.AuthURL,
			TokenURL: config.OAuth2Config.TokenURL,
		},
		RedirectURL: config.OAuth2Config.RedirectURL,
		Scopes:      config.OAuth2Config.Scopes,
	}

	return &OAuth2Provider{
		config:       config,
		oauth2Config: oauth2Cfg,
		timeout:      defaultRequestTimeout,
	}, nil
}

// Name returns the provider name
func (p *OAuth2Provider) Name() string {
	return p.config.Name
}

// Type returns the provider type
func (p *OAuth2Provider) Type() ProviderType {
	return ProviderTypeOAuth2
}

// AuthCodeURL builds the authorization endpoint URL for the redirect step
func (p *OAuth2Provider) AuthCodeURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state)
}

// Authenticate exchanges the authorization code and fetches the provider's
// profile for a stable subject id. No identity is created here; the caller
// resolves the subject only after this succeeds.
func (p *OAuth2Provider) Authenticate(ctx context.Context, code string) (*Subject, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", ErrAuthorizationFailed)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	token, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: code exchange rejected: %v", ErrAuthorizationFailed, err)
	}

	client := p.oauth2Config.Client(ctx, token)
	resp, err := client.Get(p.config.OAuth2Config.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("%w: profile fetch failed: %v", ErrAuthorizationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: profile fetch returned status %d", ErrAuthorizationFailed, resp.StatusCode)
	}

	var profile map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%w: malformed profile response: %v", ErrAuthorizationFailed, err)
	}

	subjectField := p.config.OAuth2Config.SubjectField
	if subjectField == "" {
		subjectField = "sub"
	}

	subjectID := getStringValue(profile, subjectField)
	if subjectID == "" {
		return nil, fmt.Errorf("%w: profile is missing subject id field %q", ErrAuthorizationFailed, subjectField)
	}

	return &Subject{
		ProviderName: p.config.Name,
		ID:           subjectID,
		Email:        getStringValue(profile, "email"),
		FullName:     getStringValue(profile, "name"),
	}, nil
}

// ValidateConfig validates the OAuth2 configuration
func (p *OAuth2Provider) ValidateConfig() error {
	if p.config.OAuth2Config == nil {
		return fmt.Errorf("OAuth2 config is required")
	}

	cfg := p.config.OAuth2Config

	if cfg.ClientID == "" {
		return fmt.Errorf("client_id is required")
	}
	if cfg.ClientSecret == "" {
		return fmt.Errorf("client_secret is required")
	}
	if cfg.AuthURL == "" {
		return fmt.Errorf("auth_url is required")
	}
	if cfg.TokenURL == "" {
		return fmt.Errorf("token_url is required")
	}
	if cfg.UserInfoURL == "" {
		return fmt.Errorf("user_info_url is required")
	}
	if cfg.RedirectURL == "" {
		return fmt.Errorf("redirect_url is required")
	}
	if len(cfg.Scopes) == 0 {
		return fmt.Errorf("scopes are required")
	}

	return nil
}

// getStringValue pulls a string field out of a decoded JSON object
func getStringValue(data map[string]interface{}, key string) string {
	if key == "" {
		return ""
	}
	if val, ok := data[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}
