package sso

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFakeIssuer serves the minimal OIDC discovery document so
// NewOIDCProvider can construct without network access.
func newFakeIssuer(t *testing.T) *httptest.Server {
	t.Helper()

	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"issuer":                 server.URL,
			"authorization_endpoint": server.URL + "/authorize",
			"token_endpoint":         server.URL + "/token",
			"jwks_uri":               server.URL + "/keys",
			"userinfo_endpoint":      server.URL + "/userinfo",
		})
	})
	mux.HandleFunc("/keys", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"keys": []interface{}{}})
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func oidcProviderConfig(issuerURL string) *ProviderConfig {
	return &ProviderConfig{
		Name:         "corp-sso",
		ProviderType: ProviderTypeOIDC,
		Enabled:      true,
		OIDCConfig: &OIDCConfig{
			ClientID:     "test-client-id",
			ClientSecret: "test-secret",
			IssuerURL:    issuerURL,
			RedirectURL:  "https://confide.example.com/auth/corp-sso/callback",
			Scopes:       []string{"openid", "profile", "email"},
		},
	}
}

func TestNewProvider_OAuth2(t *testing.T) {
	fp := newFakeProvider(t)

	provider, err := NewProvider(context.Background(), fp.providerConfig())
	require.NoError(t, err)
	assert.Equal(t, ProviderTypeOAuth2, provider.Type())
	assert.Equal(t, "google", provider.Name())
}

func TestNewProvider_OIDC(t *testing.T) {
	issuer := newFakeIssuer(t)

	provider, err := NewProvider(context.Background(), oidcProviderConfig(issuer.URL))
	require.NoError(t, err)
	assert.Equal(t, ProviderTypeOIDC, provider.Type())
	assert.Equal(t, "corp-sso", provider.Name())
	assert.NoError(t, provider.ValidateConfig())

	url := provider.AuthCodeURL("state-456")
	assert.Contains(t, url, issuer.URL+"/authorize")
	assert.Contains(t, url, "state=state-456")
}

func TestNewProvider_OIDC_UnreachableIssuer(t *testing.T) {
	_, err := NewProvider(context.Background(), oidcProviderConfig("http://127.0.0.1:1"))
	assert.Error(t, err)
}

func TestNewProvider_MissingName(t *testing.T) {
	config := &ProviderConfig{ProviderType: ProviderTypeOAuth2}
	_, err := NewProvider(context.Background(), config)
	assert.Error(t, err)
}

func TestNewProvider_UnsupportedType(t *testing.T) {
	config := &ProviderConfig{Name: "legacy", ProviderType: "saml"}
	_, err := NewProvider(context.Background(), config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported provider type")
}

func TestValidateOIDCConfig(t *testing.T) {
	base := func() *OIDCConfig {
		return &OIDCConfig{
			ClientID:     "test-client-id",
			ClientSecret: "test-secret",
			IssuerURL:    "https://issuer.example.com",
			RedirectURL:  "https://confide.example.com/callback",
			Scopes:       []string{"openid", "email"},
		}
	}

	tests := []struct {
		name     string
		mutate   func(*OIDCConfig)
		errorMsg string
	}{
		{"valid config", func(c *OIDCConfig) {}, ""},
		{"missing client_id", func(c *OIDCConfig) { c.ClientID = "" }, "client_id is required"},
		{"missing client_secret", func(c *OIDCConfig) { c.ClientSecret = "" }, "client_secret is required"},
		{"missing issuer_url", func(c *OIDCConfig) { c.IssuerURL = "" }, "issuer_url is required"},
		{"missing redirect_url", func(c *OIDCConfig) { c.RedirectURL = "" }, "redirect_url is required"},
		{"missing scopes", func(c *OIDCConfig) { c.Scopes = nil }, "scopes are required"},
		{"missing openid scope", func(c *OIDCConfig) { c.Scopes = []string{"email"} }, "'openid' scope is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := validateOIDCConfig(cfg)
			if tt.errorMsg == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			}
		})
	}
}
