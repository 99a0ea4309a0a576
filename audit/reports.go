package audit

import (
	"fmt"
	"sort"

	"portfolio/api/models"
)

const (
	topN                     = 10
	ipFailedLoginThreshold   = 5
	userAgentThreshold       = 3
	sampleSize               = 5
	rateLimitStatsWindowHour = 24
)

func timeRange(hours int) string {
	return fmt.Sprintf("Last %d hours", hours)
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// ActivitySummary counts requests, admin actions, errors and sources over the last hours.
func (l *Logger) ActivitySummary(hours int) (models.ActivitySummary, error) {
	entries, err := l.Query(hours, "")
	if err != nil {
		return models.ActivitySummary{}, err
	}

	eventCounts := make(map[string]int)
	perIP := make(map[string]int)
	perStatus := make(map[int]int)
	var adminActions, errorCount int
	for _, entry := range entries {
		eventCounts[entry.EventType]++
		perIP[entry.UserIP]++
		perStatus[entry.StatusCode]++
		if entry.AdminAction {
			adminActions++
		}
		if entry.StatusCode >= 400 {
			errorCount++
		}
	}

	topIPs := []models.IPCount{}
	for _, ip := range rankIPs(perIP) {
		if len(topIPs) == topN {
			break
		}
		topIPs = append(topIPs, models.IPCount{IP: ip, Count: perIP[ip]})
	}

	topStatus := make([]models.StatusCount, 0, len(perStatus))
	for code, count := range perStatus {
		topStatus = append(topStatus, models.StatusCount{Code: code, Count: count})
	}
	sort.Slice(topStatus, func(i, j int) bool {
		if topStatus[i].Count != topStatus[j].Count {
			return topStatus[i].Count > topStatus[j].Count
		}
		return topStatus[i].Code < topStatus[j].Code
	})
	if len(topStatus) > topN {
		topStatus = topStatus[:topN]
	}

	return models.ActivitySummary{
		Summary: models.ActivityTotals{
			TotalRequests: len(entries),
			AdminActions:  adminActions,
			Errors:        errorCount,
			UniqueIPs:     len(perIP),
			TimeRange:     timeRange(hours),
		},
		EventTypeCounts:        eventCounts,
		TopIPs:                 topIPs,
		TopStatusCodes:         topStatus,
		AdminActionsPercentage: percentage(adminActions, len(entries)),
		ErrorRate:              percentage(errorCount, len(entries)),
	}, nil
}

// SuspiciousActivity applies the per-IP heuristics over the last hours.
func (l *Logger) SuspiciousActivity(hours int) ([]models.SuspiciousActivity, error) {
	entries, err := l.Query(hours, "")
	if err != nil {
		return nil, err
	}

	byIP := make(map[string][]models.AuditEntry)
	counts := make(map[string]int)
	for _, entry := range entries {
		byIP[entry.UserIP] = append(byIP[entry.UserIP], entry)
		counts[entry.UserIP]++
	}

	out := []models.SuspiciousActivity{}
	for _, ip := range rankIPs(counts) {
		ipEntries := byIP[ip]

		if len(ipEntries) > highActivityThreshold {
			out = append(out, models.SuspiciousActivity{
				Alert: models.Alert{
					Type:        models.AlertHighActivity,
					IP:          ip,
					Count:       len(ipEntries),
					Description: fmt.Sprintf("High activity detected: %d requests", len(ipEntries)),
				},
				Events: ipEntries[:sampleSize],
			})
		}

		var failed, violations []models.AuditEntry
		agents := make(map[string]struct{})
		for _, entry := range ipEntries {
			if entry.EventType == EventAdminLogin && entry.StatusCode == 401 {
				failed = append(failed, entry)
			}
			if entry.EventType == EventRateLimitExceeded {
				violations = append(violations, entry)
			}
			agents[entry.UserAgent] = struct{}{}
		}

		if len(failed) > ipFailedLoginThreshold {
			out = append(out, models.SuspiciousActivity{
				Alert: models.Alert{
					Type:        models.AlertFailedLogins,
					IP:          ip,
					Count:       len(failed),
					Description: fmt.Sprintf("Multiple failed login attempts: %d", len(failed)),
				},
				Events: failed,
			})
		}

		if len(violations) > 0 {
			out = append(out, models.SuspiciousActivity{
				Alert: models.Alert{
					Type:        models.AlertRateLimitViolations,
					IP:          ip,
					Count:       len(violations),
					Description: fmt.Sprintf("Rate limit violations: %d", len(violations)),
				},
				Events: violations,
			})
		}

		if len(agents) > userAgentThreshold {
			list := make([]string, 0, len(agents))
			for agent := range agents {
				list = append(list, agent)
			}
			sort.Strings(list)
			if len(list) > sampleSize {
				list = list[:sampleSize]
			}

			out = append(out, models.SuspiciousActivity{
				Alert: models.Alert{
					Type:        models.AlertMultipleUserAgents,
					IP:          ip,
					Count:       len(agents),
					Description: fmt.Sprintf("Multiple user agents from same IP: %d", len(agents)),
				},
				UserAgents: list,
			})
		}
	}

	return out, nil
}

// RateLimitStats groups the last day's rejections by endpoint next to the configured policies.
func (l *Logger) RateLimitStats(configs map[string]models.PolicyConfig) (models.RateLimitStats, error) {
	entries, err := l.Query(rateLimitStatsWindowHour, EventRateLimitExceeded)
	if err != nil {
		return models.RateLimitStats{}, err
	}

	byEndpoint := make(map[string][]models.AuditEntry)
	for _, entry := range entries {
		byEndpoint[entry.Endpoint] = append(byEndpoint[entry.Endpoint], entry)
	}

	violations := make(map[string]models.EndpointViolations, len(byEndpoint))
	for endpoint, list := range byEndpoint {
		recent := list
		if len(recent) > topN {
			recent = recent[:topN]
		}
		violations[endpoint] = models.EndpointViolations{
			Count:            len(list),
			RecentViolations: recent,
		}
	}

	return models.RateLimitStats{
		Violations:         violations,
		Configs:            configs,
		TotalViolations24h: len(entries),
	}, nil
}
