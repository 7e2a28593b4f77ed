package api

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/confide/confide/pkg/httputil"
	"github.com/confide/confide/pkg/sso"
)

// stateCookieName holds the CSRF state between the redirect to the provider
// and its callback.
const stateCookieName = "confide_oauth_state"

const stateCookieMaxAge = 600

// beginFederatedLogin handles GET /auth/{provider}/login
func (s *Server) beginFederatedLogin(w http.ResponseWriter, r *http.Request) {
	providerName, ok := httputil.ParsePathStringOrError(w, r, "provider")
	if !ok {
		return
	}

	provider, ok := s.providers.Get(providerName)
	if !ok {
		httputil.WriteErrorMessage(w, http.StatusNotFound, "unknown provider")
		return
	}

	stateBytes := make([]byte, 32)
	if _, err := rand.Read(stateBytes); err != nil {
		s.logger.WithError(err).Error("failed to generate state")
		httputil.WriteInternalError(w, errors.New("failed to generate state"))
		return
	}
	state := base64.URLEncoding.EncodeToString(stateBytes)

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   stateCookieMaxAge,
	})

	http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusFound)
}

// federatedCallback handles GET /auth/{provider}/callback
func (s *Server) federatedCallback(w http.ResponseWriter, r *http.Request) {
	providerName, ok := httputil.ParsePathStringOrError(w, r, "provider")
	if !ok {
		return
	}

	provider, ok := s.providers.Get(providerName)
	if !ok {
		httputil.WriteErrorMessage(w, http.StatusNotFound, "unknown provider")
		return
	}

	clearState := func() {
		http.SetCookie(w, &http.Cookie{Name: stateCookieName, MaxAge: -1, Path: "/"})
	}

	// The provider reports user denial and its own errors via the error
	// query parameter.
	if errParam := httputil.ParseQueryString(r, "error", ""); errParam != "" {
		clearState()
		s.countAuthAttempt("federated", "failure")
		s.logger.WithField("provider", providerName).
			WithField("error", errParam).
			Warn("federated login rejected by provider")
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil {
		httputil.WriteBadRequest(w, "missing state cookie")
		return
	}
	if state := httputil.ParseQueryString(r, "state", ""); state != stateCookie.Value {
		httputil.WriteBadRequest(w, "invalid state parameter")
		return
	}
	clearState()

	code := httputil.ParseQueryString(r, "code", "")
	subject, err := provider.Authenticate(r.Context(), code)
	if err != nil {
		s.countAuthAttempt("federated", "failure")
		if errors.Is(err, sso.ErrAuthorizationFailed) {
			s.logger.WithError(err).WithField("provider", providerName).
				Warn("federated authorization failed")
			if wantsJSON(r) {
				httputil.WriteUnauthorized(w, "authorization failed")
				return
			}
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		s.logger.WithError(err).Error("federated authentication error")
		httputil.WriteInternalError(w, errors.New("authentication failed"))
		return
	}

	user, err := s.identities.ResolveFederated(r.Context(), provider.Name(), subject.ID)
	if err != nil {
		s.countAuthAttempt("federated", "error")
		s.logger.WithError(err).Error("failed to resolve federated identity")
		httputil.WriteServiceUnavailable(w, "login is temporarily unavailable")
		return
	}

	s.countAuthAttempt("federated", "success")
	s.logger.WithFields(map[string]interface{}{
		"provider": provider.Name(),
		"subject":  subject.ID,
	}).Info("federated login")
	s.establishSession(w, r, user, "federated")
}
