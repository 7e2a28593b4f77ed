// Package middleware provides the session authentication guard for Confide's
// HTTP routes.
package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/confide/confide/pkg/contextkeys"
	"github.com/confide/confide/pkg/identity"
	"github.com/confide/confide/pkg/session"
)

// SessionCookieName is the cookie carrying the opaque session token
const SessionCookieName = "confide_session"

// ErrUnauthenticated is returned by RequireSession when the request carries
// no resolvable session.
var ErrUnauthenticated = errors.New("unauthenticated")

// RequireSession resolves a session token to its identity. It is a pure
// function of session state: no side effects beyond the codec's TTL refresh.
// An absent or invalid token fails with ErrUnauthenticated; a storage outage
// propagates as-is so it is not mistaken for a logged-out client.
func RequireSession(ctx context.Context, codec *session.Codec, token string) (*identity.Identity, error) {
	user, err := codec.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// SessionMiddleware guards routes behind a live session
type SessionMiddleware struct {
	codec    *session.Codec
	loginURL string
}

// NewSessionMiddleware creates the session guard. Unauthenticated requests
// are redirected to loginURL rather than rejected, matching the browser-first
// login surface.
func NewSessionMiddleware(codec *session.Codec, loginURL string) *SessionMiddleware {
	return &SessionMiddleware{
		codec:    codec,
		loginURL: loginURL,
	}
}

// Handler wraps an HTTP handler with session authentication. On success the
// resolved identity and the raw token are placed on the request context.
func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)

		user, err := RequireSession(r.Context(), m.codec, token)
		if errors.Is(err, ErrUnauthenticated) {
			http.Redirect(w, r, m.loginURL, http.StatusFound)
			return
		}
		if err != nil {
			http.Error(w, "session lookup failed", http.StatusInternalServerError)
			return
		}

		ctx := contextkeys.WithIdentity(r.Context(), user)
		ctx = contextkeys.WithSessionToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TokenFromRequest extracts the session token from the request cookie.
// Returns "" when the cookie is absent.
func TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// GetIdentity extracts the authenticated identity from the request context.
// Returns nil outside of SessionMiddleware.
func GetIdentity(r *http.Request) *identity.Identity {
	user, ok := r.Context().Value(contextkeys.IdentityKey).(*identity.Identity)
	if !ok {
		return nil
	}
	return user
}
