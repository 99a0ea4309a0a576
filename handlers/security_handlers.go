package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"portfolio/api/models"
	"portfolio/api/utils"
)

const userAgentDisplayLength = 100

// AuditReader is the query side of the audit log.
type AuditReader interface {
	Query(hours int, eventType string) ([]models.AuditEntry, error)
	Alerts(hours int) ([]models.Alert, error)
	ActivitySummary(hours int) (models.ActivitySummary, error)
	SuspiciousActivity(hours int) ([]models.SuspiciousActivity, error)
	RateLimitStats(configs map[string]models.PolicyConfig) (models.RateLimitStats, error)
}

// PolicySource exposes the configured rate-limit table.
type PolicySource interface {
	PolicyConfigs() map[string]models.PolicyConfig
}

type SecurityHandlers struct {
	Audit    AuditReader
	Policies PolicySource
	logger   logrus.FieldLogger
}

func NewSecurityHandlers(audit AuditReader, policies PolicySource, logger logrus.FieldLogger) *SecurityHandlers {
	return &SecurityHandlers{Audit: audit, Policies: policies, logger: logger}
}

func timeRange(hours int) string {
	return fmt.Sprintf("Last %d hours", hours)
}

func (h *SecurityHandlers) readFailed(c *gin.Context, err error) {
	h.logger.WithError(err).WithField("path", c.Request.URL.Path).Error("failed to read audit log")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read audit log"})
}

// GetAuditLogs lists entries newest first. admin_only keeps admin actions only.
func (h *SecurityHandlers) GetAuditLogs(c *gin.Context) {
	n, ok := hours(c)
	if !ok {
		return
	}

	entries, err := h.Audit.Query(n, c.Query("event_type"))
	if err != nil {
		h.readFailed(c, err)
		return
	}

	adminOnly := c.Query("admin_only") == "true"
	events := make([]models.AuditEntry, 0, len(entries))
	for _, entry := range entries {
		if adminOnly && !entry.AdminAction {
			continue
		}
		entry.UserAgent = utils.Truncate(entry.UserAgent, userAgentDisplayLength)
		events = append(events, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"events":      events,
		"total_count": len(events),
		"time_range":  timeRange(n),
	})
}

func (h *SecurityHandlers) GetSecurityAlerts(c *gin.Context) {
	n, ok := hours(c)
	if !ok {
		return
	}

	alerts, err := h.Audit.Alerts(n)
	if err != nil {
		h.readFailed(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts":       alerts,
		"total_alerts": len(alerts),
		"time_range":   timeRange(n),
	})
}

func (h *SecurityHandlers) GetRateLimitStats(c *gin.Context) {
	stats, err := h.Audit.RateLimitStats(h.Policies.PolicyConfigs())
	if err != nil {
		h.readFailed(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *SecurityHandlers) GetActivitySummary(c *gin.Context) {
	n, ok := hours(c)
	if !ok {
		return
	}

	summary, err := h.Audit.ActivitySummary(n)
	if err != nil {
		h.readFailed(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *SecurityHandlers) GetSuspiciousActivity(c *gin.Context) {
	n, ok := hours(c)
	if !ok {
		return
	}

	activities, err := h.Audit.SuspiciousActivity(n)
	if err != nil {
		h.readFailed(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"suspicious_activities": activities,
		"total_suspicious":      len(activities),
		"time_range":            timeRange(n),
	})
}
