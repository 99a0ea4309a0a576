// Package audit records security-relevant request outcomes and reports over them.
package audit

import (
	"fmt"
	"sort"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"portfolio/api/models"
	"portfolio/api/utils"
)

const (
	EventRateLimitExceeded = "rate_limit_exceeded"
	EventAdminLogin        = "admin_login"

	highActivityThreshold = 50
	failedLoginThreshold  = 10
)

// Logger writes sanitized entries to a Store and answers window queries over it.
type Logger struct {
	store  Store
	clock  clockwork.Clock
	logger logrus.FieldLogger
}

func NewLogger(store Store, clock clockwork.Clock, logger logrus.FieldLogger) *Logger {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Logger{
		store:  store,
		clock:  clock,
		logger: logger,
	}
}

// Record persists entry. Failures are logged and never returned.
func (l *Logger) Record(entry models.AuditEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.clock.Now().UTC()
	}
	entry.RequestData = Sanitize(entry.RequestData)
	entry.ResponseData = Sanitize(entry.ResponseData)

	if err := l.store.Append(entry); err != nil {
		l.logger.WithError(err).WithField("event_type", entry.EventType).Error("failed to write audit log")
	}

	if entry.AdminAction || entry.StatusCode >= 400 {
		l.logger.Infof("AUDIT: %s - %s %s - Status: %d - IP: %s",
			entry.EventType, entry.Method, entry.Endpoint, entry.StatusCode, entry.UserIP)
	}
}

// Query returns the entries of the last hours, newest first. An empty eventType matches all.
func (l *Logger) Query(hours int, eventType string) ([]models.AuditEntry, error) {
	cutoff := l.clock.Now().Add(-utils.HoursWindow(hours))

	var entries []models.AuditEntry
	err := l.store.Scan(func(entry models.AuditEntry) {
		if entry.Timestamp.Before(cutoff) {
			return
		}
		if eventType != "" && entry.EventType != eventType {
			return
		}
		entries = append(entries, entry)
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	return entries, nil
}

// Alerts evaluates the alert heuristics over the last hours.
func (l *Logger) Alerts(hours int) ([]models.Alert, error) {
	entries, err := l.Query(hours, "")
	if err != nil {
		return nil, err
	}

	perIP := make(map[string]int)
	var failedLogins, violations int
	for _, entry := range entries {
		perIP[entry.UserIP]++
		if entry.EventType == EventAdminLogin && entry.StatusCode == 401 {
			failedLogins++
		}
		if entry.EventType == EventRateLimitExceeded {
			violations++
		}
	}

	alerts := []models.Alert{}
	for _, ip := range rankIPs(perIP) {
		if count := perIP[ip]; count > highActivityThreshold {
			alerts = append(alerts, models.Alert{
				Type:        models.AlertHighActivity,
				IP:          ip,
				Count:       count,
				Description: fmt.Sprintf("High activity detected from IP %s: %d requests", ip, count),
			})
		}
	}

	if failedLogins > failedLoginThreshold {
		alerts = append(alerts, models.Alert{
			Type:        models.AlertFailedLogins,
			Count:       failedLogins,
			Description: fmt.Sprintf("Multiple failed login attempts: %d", failedLogins),
		})
	}

	if violations > 0 {
		alerts = append(alerts, models.Alert{
			Type:        models.AlertRateLimitViolations,
			Count:       violations,
			Description: fmt.Sprintf("Rate limit violations: %d", violations),
		})
	}

	return alerts, nil
}

// rankIPs orders IPs by count, breaking ties by address.
func rankIPs(counts map[string]int) []string {
	ips := make([]string, 0, len(counts))
	for ip := range counts {
		ips = append(ips, ip)
	}
	sort.Slice(ips, func(i, j int) bool {
		if counts[ips[i]] != counts[ips[j]] {
			return counts[ips[i]] > counts[ips[j]]
		}
		return ips[i] < ips[j]
	})
	return ips
}
