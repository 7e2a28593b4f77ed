package api

import (
	"net/http"

	"github.com/confide/confide/pkg/httputil"
	"github.com/confide/confide/pkg/middleware"
)

// listSecrets handles GET /secrets
func (s *Server) listSecrets(w http.ResponseWriter, r *http.Request) {
	secrets, err := s.identities.ListSecrets(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to list secrets")
		httputil.WriteServiceUnavailable(w, "secrets are temporarily unavailable")
		return
	}
	if secrets == nil {
		secrets = []string{}
	}

	user := middleware.GetIdentity(r)
	httputil.WriteSuccess(w, map[string]interface{}{
		"username": user.Username,
		"secrets":  secrets,
	})
}

// submitSecret handles POST /submit
func (s *Server) submitSecret(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireForm(w, r, "secret") {
		return
	}
	secret := httputil.FormString(r, "secret")

	user := middleware.GetIdentity(r)
	if err := s.identities.SetSecret(r.Context(), user.ID, secret); err != nil {
		s.logger.WithError(err).Error("failed to store secret")
		httputil.WriteServiceUnavailable(w, "secret submission is temporarily unavailable")
		return
	}

	if wantsJSON(r) {
		httputil.WriteSuccess(w, map[string]string{"status": "stored"})
		return
	}
	http.Redirect(w, r, "/secrets", http.StatusFound)
}
