package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"portfolio/api/analytics"
	"portfolio/api/audit"
	"portfolio/api/config"
	"portfolio/api/database"
	"portfolio/api/middleware"
	"portfolio/api/ratelimit"
	"portfolio/api/store"
	"portfolio/api/utils"
)

func newLogger(cfg config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if cfg.GinMode == gin.ReleaseMode {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	logger := newLogger(cfg)
	gin.SetMode(cfg.GinMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := clockwork.NewRealClock()

	policies, err := ratelimit.LoadPolicies(cfg.RateLimit.PolicyFile)
	if err != nil {
		logger.WithError(err).Fatal("failed to load rate limit policies")
	}

	deps := routerDeps{
		Limiter: ratelimit.NewLimiter(policies, clock),
		Audit: audit.NewLogger(
			audit.NewFileStore(cfg.Audit.LogFile),
			clock,
			logger.WithField("component", "audit"),
		),
		Issuer: utils.NewTokenIssuer(cfg.JWT.SecretKey, cfg.JWT.TTL, clock),
		Clock:  clock,
		Logger: logger,
	}

	deps.Admins, err = store.NewAdminStore(cfg.Admin.Email, cfg.Admin.Password)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize admin account")
	}

	// --- Analytics recorder, with optional geo enrichment and ClickHouse export ---
	analyticsLogger := logger.WithField("component", "analytics")
	events := analytics.NewMemoryStore()
	recorderOpts := []analytics.Option{
		analytics.WithClock(clock),
		analytics.WithLogger(analyticsLogger),
	}

	if cfg.GeoIP.DatabasePath != "" {
		resolver, err := analytics.NewMaxMindResolver(cfg.GeoIP.DatabasePath, analyticsLogger)
		if err != nil {
			logger.WithError(err).Warn("geographic enrichment disabled")
		} else {
			defer resolver.Close()
			recorderOpts = append(recorderOpts, analytics.WithResolver(resolver))
		}
	}

	var workers sync.WaitGroup
	exportCtx, stopExport := context.WithCancel(ctx)
	defer stopExport()

	if cfg.ClickHouse.Enabled() {
		chLogger := logger.WithField("component", "clickhouse")
		chClient, err := database.NewClickHouseDB(ctx, cfg.ClickHouse, chLogger)
		if err != nil {
			logger.WithError(err).Warn("analytics export disabled")
		} else {
			defer chClient.Close()

			exporter := analytics.NewBatchExporter(
				store.NewAnalyticsStore(chClient, chLogger),
				analytics.BatchOptions{Clock: clock},
				analyticsLogger,
			)
			recorderOpts = append(recorderOpts, analytics.WithExporter(exporter))

			workers.Add(1)
			go func() {
				defer workers.Done()
				exporter.Run(exportCtx)
			}()
		}
	}

	deps.Recorder = analytics.NewRecorder(events, recorderOpts...)
	deps.Reports = analytics.NewAggregator(events, clock)

	// --- PostgreSQL backs the newsletter and contact routes ---
	if cfg.Database.URL != "" {
		dbClient, err := database.NewPostgresDB(ctx, cfg.Database, logger.WithField("component", "postgres"))
		if err != nil {
			logger.WithError(err).Fatal("failed to initialize PostgreSQL database")
		}
		defer dbClient.Close()

		deps.Subscribers = store.NewNewsletterStore(dbClient.DB)
		deps.Leads = store.NewLeadStore(dbClient.DB)
	} else {
		logger.Warn("database url is empty, newsletter and contact routes disabled")
	}

	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		deps.Metrics = middleware.NewMetrics(registry)
		deps.Gatherer = registry
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: newRouter(cfg, deps),
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("portfolio API server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("portfolio API server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}

	stopExport()
	workers.Wait()

	logger.Info("server exiting")
}
