// Package sso drives federated login for Confide via OAuth2 and OpenID Connect.
//
// # Overview
//
// A federated login is a two-step state machine. Step one builds the
// provider's authorization URL and redirects the browser there; no local
// state changes. Step two takes the authorization code from the provider's
// callback, exchanges it for an access token, fetches the provider's profile
// for a stable subject id, and hands that subject to the identity resolver.
// Any failure in step two (rejected code, unreachable or slow provider,
// profile without a subject) collapses to ErrAuthorizationFailed and creates
// nothing; the caller restarts from step one.
//
// # Supported Protocols
//
// OAuth2: authorization-code flow with a userinfo endpoint (Google by default)
// OpenID Connect: discovery plus verified ID token claims
//
// # Usage
//
//	registry := sso.NewRegistry()
//	if err := registry.LoadFile("providers.yaml"); err != nil { ... }
//
//	provider, _ := registry.Get("google")
//	url := provider.AuthCodeURL(state)          // step one
//	subject, err := provider.Authenticate(ctx, code) // step two
//
// Provider definitions live in a YAML file and can be hot-reloaded with
// Registry.Watch.
package sso
