package sso

import "errors"

// ErrAuthorizationFailed is returned for every federated step-two failure:
// rejected or reused code, provider timeout, malformed profile. Callers get
// no more detail than this so the login surface cannot leak which stage
// failed; the wrapped cause is for logs.
var ErrAuthorizationFailed = errors.New("authorization failed")

// ProviderType represents the federated protocol
type ProviderType string

const (
	ProviderTypeOAuth2 ProviderType = "oauth2"
	ProviderTypeOIDC   ProviderType = "oidc"
)

// Subject is the stable remote handle for a user at a federated provider.
// Only ProviderName and ID take part in identity resolution; the rest is
// informational.
type Subject struct {
	ProviderName string `json:"provider_name"`
	ID           string `json:"id"`
	Email        string `json:"email,omitempty"`
	FullName     string `json:"full_name,omitempty"`
}

// ProviderConfig defines one federated provider instance
type ProviderConfig struct {
	Name         string        `yaml:"name" json:"name"`
	ProviderType ProviderType  `yaml:"type" json:"provider_type"`
	Enabled      bool          `yaml:"enabled" json:"enabled"`
	OAuth2Config *OAuth2Config `yaml:"oauth2,omitempty" json:"oauth2_config,omitempty"`
	OIDCConfig   *OIDCConfig   `yaml:"oidc,omitempty" json:"oidc_config,omitempty"`
}

// OAuth2Config holds OAuth2 configuration
type OAuth2Config struct {
	ClientID     string   `yaml:"client_id" json:"client_id"`
	ClientSecret string   `yaml:"client_secret" json:"-"` // Never expose secret in JSON
	AuthURL      string   `yaml:"auth_url" json:"auth_url"`
	TokenURL     string   `yaml:"token_url" json:"token_url"`
	UserInfoURL  string   `yaml:"user_info_url" json:"user_info_url"`
	RedirectURL  string   `yaml:"redirect_url" json:"redirect_url"`
	Scopes       []string `yaml:"scopes" json:"scopes"`

	// SubjectField names the userinfo field holding the stable subject id.
	// Defaults to "sub".
	SubjectField string `yaml:"subject_field,omitempty" json:"subject_field,omitempty"`
}

// OIDCConfig holds OpenID Connect configuration
type OIDCConfig struct {
	ClientID     string   `yaml:"client_id" json:"client_id"`
	ClientSecret string   `yaml:"client_secret" json:"-"` // Never expose secret in JSON
	IssuerURL    string   `yaml:"issuer_url" json:"issuer_url"` // Discovery endpoint
	RedirectURL  string   `yaml:"redirect_url" json:"redirect_url"`
	Scopes       []string `yaml:"scopes" json:"scopes"`
}
