package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"portfolio/api/audit"
	"portfolio/api/config"
	"portfolio/api/handlers"
	"portfolio/api/middleware"
	"portfolio/api/ratelimit"
	"portfolio/api/store"
	"portfolio/api/utils"
)

// recorder is what both the interception layer and the route handlers record into.
type recorder interface {
	middleware.Tracker
	handlers.Recorder
}

type routerDeps struct {
	Limiter  *ratelimit.Limiter
	Audit    *audit.Logger
	Recorder recorder
	Reports  handlers.Reports
	Admins   *store.AdminStore
	Issuer   *utils.TokenIssuer

	// Nil disables the newsletter and contact routes.
	Subscribers handlers.Subscribers
	Leads       handlers.Leads

	// Nil disables /metrics.
	Metrics  *middleware.Metrics
	Gatherer prometheus.Gatherer

	Clock  clockwork.Clock
	Logger logrus.FieldLogger
}

func newRouter(cfg config.Config, deps routerDeps) *gin.Engine {
	logger := deps.Logger

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(logger.WithField("component", "http"), "/health", "/ping", "/metrics"),
		middleware.Security(
			deps.Limiter,
			deps.Audit,
			deps.Recorder,
			middleware.WithClock(deps.Clock),
			middleware.WithMetrics(deps.Metrics),
			middleware.WithLogger(logger.WithField("component", "security")),
		),
		// After Security so origin rejections are still audited and rate limited.
		middleware.CORSMiddleware(cfg.Origins()),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	adminRequired := middleware.AdminRequired(deps.Issuer, deps.Admins, logger.WithField("component", "auth"))

	authHandlers := handlers.NewAuthHandlers(deps.Admins, deps.Issuer, logger.WithField("component", "auth"))
	trackHandlers := handlers.NewTrackHandlers(deps.Recorder)
	analyticsHandlers := handlers.NewAnalyticsHandlers(deps.Reports)
	securityHandlers := handlers.NewSecurityHandlers(deps.Audit, deps.Limiter, logger.WithField("component", "security"))

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandlers.Login)
			auth.POST("/logout", authHandlers.Logout)
			auth.POST("/change-password", adminRequired, authHandlers.ChangePassword)
		}

		analyticsGroup := api.Group("/analytics")
		{
			analyticsGroup.POST("/track/page-view", trackHandlers.TrackPageView)
			analyticsGroup.POST("/track/conversion", trackHandlers.TrackConversion)
			analyticsGroup.POST("/track/behavior", trackHandlers.TrackBehavior)

			reports := analyticsGroup.Group("/", adminRequired)
			reports.GET("/summary", analyticsHandlers.GetSummary)
			reports.GET("/geographic", analyticsHandlers.GetGeographic)
			reports.GET("/performance", analyticsHandlers.GetPerformance)
			reports.GET("/user-behavior", analyticsHandlers.GetUserBehavior)
			reports.GET("/conversions", analyticsHandlers.GetConversions)
			reports.GET("/real-time", analyticsHandlers.GetRealTime)
			reports.GET("/trends", analyticsHandlers.GetTrends)
		}

		security := api.Group("/security", adminRequired)
		{
			security.GET("/audit-logs", securityHandlers.GetAuditLogs)
			security.GET("/security-alerts", securityHandlers.GetSecurityAlerts)
			security.GET("/rate-limit-stats", securityHandlers.GetRateLimitStats)
			security.GET("/activity-summary", securityHandlers.GetActivitySummary)
			security.GET("/suspicious-activity", securityHandlers.GetSuspiciousActivity)
		}

		if deps.Subscribers != nil {
			newsletterHandlers := handlers.NewNewsletterHandlers(deps.Subscribers, deps.Recorder, logger.WithField("component", "newsletter"))
			newsletter := api.Group("/newsletter")
			newsletter.POST("/subscribe", newsletterHandlers.Subscribe)
			newsletter.GET("/admin", adminRequired, newsletterHandlers.List)
			newsletter.GET("/admin/stats", adminRequired, newsletterHandlers.Stats)
			newsletter.DELETE("/admin/:id", adminRequired, newsletterHandlers.Delete)
		}

		if deps.Leads != nil {
			contactHandlers := handlers.NewContactHandlers(deps.Leads, deps.Recorder, logger.WithField("component", "contact"))
			contact := api.Group("/contact")
			contact.POST("/send-message", contactHandlers.SendMessage)
			contact.POST("/book-call", contactHandlers.BookCall)
			contact.GET("/admin", adminRequired, contactHandlers.List)
		}
	}

	return r
}
