package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/confide/confide/pkg/identity"
	"github.com/confide/confide/pkg/observability"
	"github.com/confide/confide/pkg/session"
	"github.com/confide/confide/pkg/sso"
)

// fakeIdP is an httptest stand-in for an OAuth2 provider, accepting one
// authorization code and serving one profile.
type fakeIdP struct {
	server    *httptest.Server
	validCode string
	profile   map[string]interface{}
}

func newFakeIdP(t *testing.T) *fakeIdP {
	t.Helper()

	idp := &fakeIdP{
		validCode: "good-code",
		profile: map[string]interface{}{
			"sub":   "google-subject-42",
			"email": "alice@example.com",
			"name":  "Alice Example",
		},
	}

	handler := http.NewServeMux()
	handler.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("code") != idp.validCode {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "fake-access-token",
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	})
	handler.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(idp.profile)
	})

	idp.server = httptest.NewServer(handler)
	t.Cleanup(idp.server.Close)
	return idp
}

func (idp *fakeIdP) config() *sso.ProviderConfig {
	return &sso.ProviderConfig{
		Name:         "google",
		ProviderType: sso.ProviderTypeOAuth2,
		Enabled:      true,
		OAuth2Config: &sso.OAuth2Config{
			ClientID:     "test-client-id",
			ClientSecret: "test-secret",
			AuthURL:      idp.server.URL + "/authorize",
			TokenURL:     idp.server.URL + "/token",
			UserInfoURL:  idp.server.URL + "/userinfo",
			RedirectURL:  "http://localhost:8080/auth/google/callback",
			Scopes:       []string{"profile", "email"},
		},
	}
}

type testServer struct {
	server *Server
	store  *identity.Store
	idp    *fakeIdP
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	store := identity.NewStore(db)
	require.NoError(t, store.EnsureSchema(context.Background()))

	codec := session.NewCodec(session.NewMemoryStore(128, time.Hour), store)

	idp := newFakeIdP(t)
	registry := sso.NewRegistry()
	require.NoError(t, registry.Register(context.Background(), idp.config()))

	server := NewServer(Options{
		Identities: store,
		Sessions:   codec,
		Providers:  registry,
		Logger:     observability.NewLogger(observability.ErrorLevel, io.Discard),
		SessionTTL: time.Hour,
	})

	return &testServer{server: server, store: store, idp: idp}
}

// postForm sends a form POST through the router, carrying cookies
func (ts *testServer) postForm(path string, values url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)
	return rec
}

// get sends a GET through the router, carrying cookies
func (ts *testServer) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)
	return rec
}

// sessionCookie extracts the session cookie from a response
func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "confide_session" && c.MaxAge >= 0 {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

// registerUser registers a user and returns their session cookie
func (ts *testServer) registerUser(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	rec := ts.postForm("/register", url.Values{
		"username": {username},
		"password": {password},
	})
	require.Equal(t, http.StatusFound, rec.Code)
	return sessionCookie(t, rec)
}
