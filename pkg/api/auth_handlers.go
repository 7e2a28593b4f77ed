package api

import (
	"errors"
	"net/http"

	"github.com/confide/confide/pkg/contextkeys"
	"github.com/confide/confide/pkg/httputil"
	"github.com/confide/confide/pkg/identity"
	"github.com/confide/confide/pkg/middleware"
)

// home handles GET /
func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, map[string]interface{}{
		"service":   "confide",
		"providers": s.providers.Names(),
	})
}

// registerPage handles GET /register
func (s *Server) registerPage(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, map[string]string{
		"action": "/register",
		"fields": "username, password",
	})
}

// loginPage handles GET /login
func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, map[string]string{
		"action": "/login",
		"fields": "username, password",
	})
}

// register handles POST /register
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireForm(w, r, "username", "password") {
		return
	}
	username := httputil.FormString(r, "username")
	password := httputil.FormString(r, "password")

	user, err := s.identities.Register(r.Context(), username, password)
	if errors.Is(err, identity.ErrDuplicateUsername) {
		s.countRegistration("duplicate")
		if wantsJSON(r) {
			httputil.WriteConflict(w, "username is already taken")
			return
		}
		http.Redirect(w, r, "/register", http.StatusFound)
		return
	}
	if err != nil {
		s.countRegistration("error")
		s.logger.WithError(err).Error("registration failed")
		httputil.WriteServiceUnavailable(w, "registration is temporarily unavailable")
		return
	}

	s.countRegistration("success")
	s.logger.WithField("username", username).Info("identity registered")
	s.establishSession(w, r, user, "local")
}

// login handles POST /login
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireForm(w, r, "username", "password") {
		return
	}
	username := httputil.FormString(r, "username")
	password := httputil.FormString(r, "password")

	user, err := s.identities.Verify(r.Context(), username, password)
	if errors.Is(err, identity.ErrInvalidCredentials) {
		s.countAuthAttempt("local", "failure")
		if wantsJSON(r) {
			httputil.WriteUnauthorized(w, "invalid credentials")
			return
		}
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	if err != nil {
		s.countAuthAttempt("local", "error")
		s.logger.WithError(err).Error("login failed")
		httputil.WriteServiceUnavailable(w, "login is temporarily unavailable")
		return
	}

	s.countAuthAttempt("local", "success")
	s.establishSession(w, r, user, "local")
}

// logout handles GET /logout
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	token := contextkeys.GetSessionToken(r.Context())
	if token == "" {
		token = middleware.TokenFromRequest(r)
	}

	if token != "" {
		if err := s.sessions.Revoke(r.Context(), token); err != nil {
			s.logger.WithError(err).Warn("failed to revoke session")
		} else {
			s.countSessionRevoked()
		}
	}

	s.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

// establishSession issues a session for the authenticated identity, sets the
// cookie, and sends the client to the secrets page.
func (s *Server) establishSession(w http.ResponseWriter, r *http.Request, user *identity.Identity, strategy string) {
	token, err := s.sessions.Issue(r.Context(), user)
	if err != nil {
		s.logger.WithError(err).Error("failed to issue session")
		httputil.WriteServiceUnavailable(w, "session creation failed")
		return
	}

	s.countSessionIssued(strategy)
	s.setSessionCookie(w, token)

	if wantsJSON(r) {
		httputil.WriteSuccess(w, map[string]string{
			"id":       user.ID,
			"username": user.Username,
		})
		return
	}
	http.Redirect(w, r, "/secrets", http.StatusFound)
}

func (s *Server) countAuthAttempt(strategy, outcome string) {
	if s.metrics != nil {
		s.metrics.AuthAttemptsTotal.WithLabelValues(strategy, outcome).Inc()
	}
}

func (s *Server) countRegistration(outcome string) {
	if s.metrics != nil {
		s.metrics.RegistrationsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Server) countSessionIssued(strategy string) {
	if s.metrics != nil {
		s.metrics.SessionsIssuedTotal.WithLabelValues(strategy).Inc()
	}
}

func (s *Server) countSessionRevoked() {
	if s.metrics != nil {
		s.metrics.SessionsRevokedTotal.Inc()
	}
}
