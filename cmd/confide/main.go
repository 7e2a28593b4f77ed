package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/confide/confide/pkg/api"
	"github.com/confide/confide/pkg/config"
	"github.com/confide/confide/pkg/httputil"
	"github.com/confide/confide/pkg/identity"
	"github.com/confide/confide/pkg/observability"
	"github.com/confide/confide/pkg/session"
	"github.com/confide/confide/pkg/sso"
)

const serviceVersion = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "confide: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info("Starting Confide")

	ctx := context.Background()

	// Identity storage.
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	identities := identity.NewStore(db)
	if err := identities.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	// Session storage.
	var sessionStore session.Store
	var redisClient *redis.Client
	switch cfg.Session.Backend {
	case "redis":
		redisStore, err := session.NewRedisStore(cfg.Session.RedisURL, cfg.Session.TTL)
		if err != nil {
			return fmt.Errorf("failed to connect session store: %w", err)
		}
		defer redisStore.Close()
		sessionStore = redisStore
		redisClient = redisStore.Client()
		logger.Info("Sessions backed by redis")
	default:
		sessionStore = session.NewMemoryStore(cfg.Session.MaxSessions, cfg.Session.TTL)
		logger.Info("Sessions held in process memory")
	}
	sessions := session.NewCodec(sessionStore, identities)

	// Federated providers.
	providers := sso.NewRegistry()
	if cfg.SSO.GoogleClientID != "" {
		googleCfg := sso.GoogleProviderConfig(cfg.SSO.GoogleClientID, cfg.SSO.GoogleClientSecret, cfg.CallbackURL("google"))
		if err := providers.Register(ctx, googleCfg); err != nil {
			return fmt.Errorf("failed to register google provider: %w", err)
		}
	}
	if cfg.SSO.ProvidersFile != "" {
		if err := providers.LoadFile(ctx, cfg.SSO.ProvidersFile); err != nil {
			return fmt.Errorf("failed to load providers file: %w", err)
		}
		if cfg.SSO.WatchProvidersFile {
			go func() {
				defer observability.RecoverPanic(logger, "providers file watcher")
				if err := providers.Watch(ctx, cfg.SSO.ProvidersFile, logger); err != nil {
					logger.WithError(err).Error("providers file watcher stopped")
				}
			}()
		}
	}
	logger.Infof("Federated providers: %v", providers.Names())

	// Metrics.
	var metrics *observability.Metrics
	registry := prometheus.NewRegistry()
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	// OpenTelemetry.
	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	// Gauge refresher.
	scheduler := cron.New()
	refreshGauges := func() {
		defer observability.RecoverPanic(logger, "gauge refresh")
		if metrics == nil {
			return
		}

		refreshCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		identityCount, federatedCount, secretCount, err := identities.Counts(refreshCtx)
		if err != nil {
			logger.WithError(err).Warn("failed to refresh identity gauges")
		} else {
			metrics.IdentitiesTotal.Set(float64(identityCount))
			metrics.FederatedIdentitiesTotal.Set(float64(federatedCount))
			metrics.SecretsTotal.Set(float64(secretCount))
		}

		switch store := sessionStore.(type) {
		case *session.MemoryStore:
			metrics.SessionsActive.Set(float64(store.Len()))
		case *session.RedisStore:
			if count, err := store.Count(refreshCtx); err == nil {
				metrics.SessionsActive.Set(float64(count))
			}
		}

		metrics.UpdateDBStats(db.Stats())
	}
	if _, err := scheduler.AddFunc("@every 1m", refreshGauges); err != nil {
		return fmt.Errorf("failed to schedule gauge refresh: %w", err)
	}
	scheduler.Start()
	refreshGauges()

	// API server.
	apiServer := api.NewServer(api.Options{
		Identities:    identities,
		Sessions:      sessions,
		Providers:     providers,
		Logger:        logger,
		Metrics:       metrics,
		SessionTTL:    cfg.Session.TTL,
		SecureCookies: cfg.Session.SecureCookies,
	})

	accessLog := logrus.New()
	accessLog.SetFormatter(&logrus.JSONFormatter{})

	chain := []func(http.Handler) http.Handler{
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(accessLog),
		httputil.RecoveryMiddleware(accessLog),
		httputil.MaxBytesMiddleware(cfg.Server.MaxBodyBytes),
	}
	if metrics != nil {
		chain = append(chain, observability.HTTPMetricsMiddleware(metrics))
	}

	var handler http.Handler = httputil.Chain(chain...)(apiServer)
	if otelProviders != nil {
		handler = otelhttp.NewHandler(handler, "confide")
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health and metrics server.
	healthMux := http.NewServeMux()
	checker := observability.NewHealthChecker(db, redisClient, serviceVersion)
	observability.RegisterHealthRoutes(healthMux, checker)
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:        cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler:     healthMux,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	// Shutdown orchestration.
	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout)
	shutdown.RegisterServer(httpServer)
	shutdown.RegisterServer(healthServer)
	shutdown.RegisterShutdownFunc(func(shutdownCtx context.Context) error {
		cronCtx := scheduler.Stop()
		select {
		case <-cronCtx.Done():
			return nil
		case <-shutdownCtx.Done():
			return shutdownCtx.Err()
		}
	})
	shutdown.RegisterShutdownFunc(func(shutdownCtx context.Context) error {
		return observability.ShutdownOTel(shutdownCtx, otelProviders, logger)
	})

	var g errgroup.Group
	g.Go(func() error {
		logger.Infof("API server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("API server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Infof("Health server listening on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server failed: %w", err)
		}
		return nil
	})
	g.Go(shutdown.WaitForShutdown)

	return g.Wait()
}
