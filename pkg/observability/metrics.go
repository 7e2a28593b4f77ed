package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsTotal  *prometheus.CounterVec
	RegistrationsTotal *prometheus.CounterVec

	// Session metrics
	SessionsIssuedTotal  *prometheus.CounterVec
	SessionsRevokedTotal prometheus.Counter
	SessionsActive       prometheus.Gauge

	// Identity store metrics
	IdentitiesTotal          prometheus.Gauge
	FederatedIdentitiesTotal prometheus.Gauge
	SecretsTotal             prometheus.Gauge

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "confide_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "confide_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		AuthAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "confide_auth_attempts_total",
				Help: "Total number of authentication attempts",
			},
			[]string{"strategy", "outcome"},
		),
		RegistrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "confide_registrations_total",
				Help: "Total number of registration attempts",
			},
			[]string{"outcome"},
		),

		SessionsIssuedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "confide_sessions_issued_total",
				Help: "Total number of sessions issued",
			},
			[]string{"strategy"},
		),
		SessionsRevokedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "confide_sessions_revoked_total",
				Help: "Total number of sessions revoked by logout",
			},
		),
		SessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "confide_sessions_active",
				Help: "Number of live sessions",
			},
		),

		IdentitiesTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "confide_identities_total",
				Help: "Total number of registered identities",
			},
		),
		FederatedIdentitiesTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "confide_federated_identities_total",
				Help: "Number of identities provisioned from a federated provider",
			},
		),
		SecretsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "confide_secrets_total",
				Help: "Number of identities with a submitted secret",
			},
		),

		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "confide_db_connections_active",
				Help: "Number of in-use database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "confide_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthAttemptsTotal,
		m.RegistrationsTotal,
		m.SessionsIssuedTotal,
		m.SessionsRevokedTotal,
		m.SessionsActive,
		m.IdentitiesTotal,
		m.FederatedIdentitiesTotal,
		m.SecretsTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
	)

	return m
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// routeLabel returns the mux route template for the request when available,
// keeping path cardinality bounded.
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return r.URL.Path
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			path := routeLabel(r)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// UpdateDBStats refreshes the connection pool gauges from sql.DBStats
func (m *Metrics) UpdateDBStats(stats sql.DBStats) {
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
