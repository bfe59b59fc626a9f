package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/garagehq/gearbox/pkg/api"
	"github.com/garagehq/gearbox/pkg/audit"
	"github.com/garagehq/gearbox/pkg/authz"
	"github.com/garagehq/gearbox/pkg/config"
	"github.com/garagehq/gearbox/pkg/directory"
	"github.com/garagehq/gearbox/pkg/httputil"
	"github.com/garagehq/gearbox/pkg/observability"
	"github.com/garagehq/gearbox/pkg/orgs"
	"github.com/garagehq/gearbox/pkg/session"
)

const maxRequestBody = 1 << 20 // request bodies here are small JSON payloads

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gearbox: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
	if otelProviders != nil {
		defer func() {
			if err := otelProviders.Shutdown(context.Background()); err != nil {
				logger.WithError(err).Error("failed to shut down OpenTelemetry")
			}
		}()
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnLifetime)
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	var redisClient *redis.Client
	var resolver authz.SessionResolver
	var sessions session.Store
	if cfg.OIDC.Enabled {
		oidcResolver, err := session.NewOIDCResolver(ctx, cfg.OIDC.IssuerURL, cfg.OIDC.ClientID)
		if err != nil {
			return fmt.Errorf("failed to initialize OIDC resolver: %w", err)
		}
		resolver = oidcResolver
		logger.WithField("issuer", cfg.OIDC.IssuerURL).Info("session resolution delegated to identity provider")
	} else {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to ping redis: %w", err)
		}
		store := session.NewRedisStore(redisClient, cfg.Session.TTL)
		resolver = store
		sessions = store
	}

	dir := directory.NewPostgresDirectory(db)
	orgService := orgs.NewPostgresService(db)

	auditLogger, err := audit.NewDBLogger(db)
	if err != nil {
		return fmt.Errorf("failed to initialize audit logger: %w", err)
	}
	defer auditLogger.Close()

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	authzMetrics := authz.NewMetrics(registry)

	gate := authz.NewGate(resolver, dir,
		authz.WithLogger(logger),
		authz.WithMetrics(authzMetrics),
	)

	server := api.NewServer(gate, orgService, dir, resolver, sessions, logger)

	middlewares := []func(http.Handler) http.Handler{
		httputil.RecoveryMiddleware(logger),
	}
	if otelProviders != nil {
		middlewares = append(middlewares, func(next http.Handler) http.Handler {
			return otelhttp.NewHandler(next, "gearbox-api")
		})
	}
	if cfg.Observability.MetricsEnabled {
		middlewares = append(middlewares, metrics.HTTPMiddleware)
	}
	middlewares = append(middlewares,
		httputil.MaxBytesMiddleware(maxRequestBody),
		audit.Middleware(auditLogger),
	)
	handler := httputil.Chain(middlewares...)(server.Router())

	apiServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	health := observability.NewHealthChecker(db, redisClient)
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", health.Liveness)
	healthMux.HandleFunc("/readyz", health.Readiness)
	if cfg.Observability.MetricsEnabled {
		healthMux.Handle("/metrics", metrics.Handler())
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", apiServer.Addr).Info("starting API server")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("API server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("starting health server")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("health server failed: %w", err)
		}
		return nil
	})
	if cfg.Observability.MetricsEnabled {
		g.Go(func() error {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					stats := db.Stats()
					metrics.DBConnectionsActive.Set(float64(stats.InUse))
					metrics.DBConnectionsIdle.Set(float64(stats.Idle))
				}
			}
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("failed to shut down API server")
		}
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("failed to shut down health server")
		}
		return nil
	})

	return g.Wait()
}
