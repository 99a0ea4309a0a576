package models

import "time"

// AuditEntry is one durable record of a request outcome.
type AuditEntry struct {
	Timestamp    time.Time              `json:"timestamp"`
	EventType    string                 `json:"event_type"`
	UserIP       string                 `json:"user_ip"`
	UserAgent    string                 `json:"user_agent"`
	Endpoint     string                 `json:"endpoint"`
	Method       string                 `json:"method"`
	StatusCode   int                    `json:"status_code"`
	UserID       string                 `json:"user_id,omitempty"`
	AdminAction  bool                   `json:"admin_action"`
	RequestData  map[string]interface{} `json:"request_data,omitempty"`
	ResponseData map[string]interface{} `json:"response_data,omitempty"`
}

const (
	AlertHighActivity        = "high_activity"
	AlertFailedLogins        = "failed_logins"
	AlertRateLimitViolations = "rate_limit_violations"
	AlertMultipleUserAgents  = "multiple_user_agents"
)

type Alert struct {
	Type        string `json:"type"`
	IP          string `json:"ip,omitempty"`
	Count       int    `json:"count"`
	Description string `json:"description"`
}

// SuspiciousActivity is a per-IP alert with the entries or user agents backing it.
type SuspiciousActivity struct {
	Alert
	Events     []AuditEntry `json:"events,omitempty"`
	UserAgents []string     `json:"user_agents,omitempty"`
}

type ActivityTotals struct {
	TotalRequests int    `json:"total_requests"`
	AdminActions  int    `json:"admin_actions"`
	Errors        int    `json:"errors"`
	UniqueIPs     int    `json:"unique_ips"`
	TimeRange     string `json:"time_range"`
}

type IPCount struct {
	IP    string `json:"ip"`
	Count int    `json:"count"`
}

type StatusCount struct {
	Code  int `json:"code"`
	Count int `json:"count"`
}

type ActivitySummary struct {
	Summary                ActivityTotals `json:"summary"`
	EventTypeCounts        map[string]int `json:"event_type_counts"`
	TopIPs                 []IPCount      `json:"top_ips"`
	TopStatusCodes         []StatusCount  `json:"top_status_codes"`
	AdminActionsPercentage float64        `json:"admin_actions_percentage"`
	ErrorRate              float64        `json:"error_rate"`
}

// PolicyConfig describes one rate-limit category for reporting.
type PolicyConfig struct {
	MaxRequests   int `json:"max_requests"`
	WindowSeconds int `json:"window_seconds"`
	WindowMinutes int `json:"window_minutes"`
}

type EndpointViolations struct {
	Count            int          `json:"count"`
	RecentViolations []AuditEntry `json:"recent_violations"`
}

type RateLimitStats struct {
	Violations         map[string]EndpointViolations `json:"rate_limit_violations"`
	Configs            map[string]PolicyConfig       `json:"rate_limit_configs"`
	TotalViolations24h int                           `json:"total_violations_24h"`
}
