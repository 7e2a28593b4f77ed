package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	t.Run("success redirects to secrets with a session", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.postForm("/register", url.Values{
			"username": {"alice"},
			"password": {"s3cret-password"},
		})

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/secrets", rec.Header().Get("Location"))

		cookie := sessionCookie(t, rec)
		assert.True(t, cookie.HttpOnly)
		assert.True(t, strings.HasPrefix(cookie.Value, "confide_"))
	})

	t.Run("duplicate username redirects back to register", func(t *testing.T) {
		ts := newTestServer(t)
		ts.registerUser(t, "alice", "first-password")

		rec := ts.postForm("/register", url.Values{
			"username": {"alice"},
			"password": {"other-password"},
		})

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/register", rec.Header().Get("Location"))
	})

	t.Run("duplicate username as JSON is a conflict", func(t *testing.T) {
		ts := newTestServer(t)
		ts.registerUser(t, "alice", "first-password")

		req := httptest.NewRequest(http.MethodPost, "/register",
			strings.NewReader(url.Values{"username": {"alice"}, "password": {"pw"}}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		ts.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.postForm("/register", url.Values{"username": {"alice"}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = ts.postForm("/register", url.Values{"password": {"pw"}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLogin(t *testing.T) {
	t.Run("valid credentials redirect to secrets", func(t *testing.T) {
		ts := newTestServer(t)
		ts.registerUser(t, "alice", "s3cret-password")

		rec := ts.postForm("/login", url.Values{
			"username": {"alice"},
			"password": {"s3cret-password"},
		})

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/secrets", rec.Header().Get("Location"))
		sessionCookie(t, rec)
	})

	t.Run("wrong password redirects to login", func(t *testing.T) {
		ts := newTestServer(t)
		ts.registerUser(t, "alice", "s3cret-password")

		rec := ts.postForm("/login", url.Values{
			"username": {"alice"},
			"password": {"wrong"},
		})

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("unknown user and wrong password are indistinguishable", func(t *testing.T) {
		ts := newTestServer(t)
		ts.registerUser(t, "alice", "s3cret-password")

		wrongPassword := ts.postForm("/login", url.Values{
			"username": {"alice"}, "password": {"wrong"},
		})
		unknownUser := ts.postForm("/login", url.Values{
			"username": {"nobody"}, "password": {"wrong"},
		})

		assert.Equal(t, wrongPassword.Code, unknownUser.Code)
		assert.Equal(t, wrongPassword.Header().Get("Location"), unknownUser.Header().Get("Location"))
	})

	t.Run("invalid credentials as JSON get 401", func(t *testing.T) {
		ts := newTestServer(t)

		req := httptest.NewRequest(http.MethodPost, "/login",
			strings.NewReader(url.Values{"username": {"ghost"}, "password": {"pw"}}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		ts.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.registerUser(t, "alice", "s3cret-password")

	// Session works.
	rec := ts.get("/secrets", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	// Logout revokes it and clears the cookie.
	rec = ts.get("/logout", cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "confide_session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "session cookie must be cleared")

	// The old token no longer resolves.
	rec = ts.get("/secrets", cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestLogoutWithoutSession(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.get("/logout")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestHome(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.get("/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "confide")
	assert.Contains(t, rec.Body.String(), "google")
}

func TestFormPages(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/login", "/register"} {
		rec := ts.get(path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
