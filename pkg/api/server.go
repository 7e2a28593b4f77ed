package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/confide/confide/pkg/identity"
	"github.com/confide/confide/pkg/middleware"
	"github.com/confide/confide/pkg/observability"
	"github.com/confide/confide/pkg/session"
	"github.com/confide/confide/pkg/sso"
)

// Server represents the Confide API server
type Server struct {
	router     *mux.Router
	identities *identity.Store
	sessions   *session.Codec
	providers  *sso.Registry
	logger     *observability.Logger
	metrics    *observability.Metrics

	sessionTTL    time.Duration
	secureCookies bool
}

// Options configures the API server. Metrics may be nil.
type Options struct {
	Identities    *identity.Store
	Sessions      *session.Codec
	Providers     *sso.Registry
	Logger        *observability.Logger
	Metrics       *observability.Metrics
	SessionTTL    time.Duration
	SecureCookies bool
}

// NewServer creates the API server and sets up its routes
func NewServer(opts Options) *Server {
	s := &Server{
		router:        mux.NewRouter(),
		identities:    opts.Identities,
		sessions:      opts.Sessions,
		providers:     opts.Providers,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
		sessionTTL:    opts.SessionTTL,
		secureCookies: opts.SecureCookies,
	}
	if s.sessionTTL <= 0 {
		s.sessionTTL = 24 * time.Hour
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/", s.home).Methods("GET")
	s.router.HandleFunc("/register", s.registerPage).Methods("GET")
	s.router.HandleFunc("/register", s.register).Methods("POST")
	s.router.HandleFunc("/login", s.loginPage).Methods("GET")
	s.router.HandleFunc("/login", s.login).Methods("POST")
	s.router.HandleFunc("/logout", s.logout).Methods("GET")

	s.router.HandleFunc("/auth/{provider}/login", s.beginFederatedLogin).Methods("GET")
	s.router.HandleFunc("/auth/{provider}/callback", s.federatedCallback).Methods("GET")

	guard := middleware.NewSessionMiddleware(s.sessions, "/login")
	s.router.Handle("/secrets", guard.Handler(http.HandlerFunc(s.listSecrets))).Methods("GET")
	s.router.Handle("/submit", guard.Handler(http.HandlerFunc(s.submitSecret))).Methods("POST")
}

// Router exposes the route tree for middleware wrapping in cmd/confide
func (s *Server) Router() *mux.Router {
	return s.router
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// wantsJSON reports whether the client asked for a JSON response instead of
// the browser redirect flow.
func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") &&
		!strings.Contains(accept, "text/html")
}

// setSessionCookie binds the issued token to the browser
func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.sessionTTL / time.Second),
	})
}

// clearSessionCookie removes the session cookie
func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
