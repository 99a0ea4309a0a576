package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	DefaultHours = 24
	DefaultDays  = 7

	// MaxHours keeps hour windows well inside time.Duration.
	MaxHours = 24 * 365 * 100
	MaxDays  = 365
)

// HoursWindow converts a lookback in hours to a duration, clamped to [0, MaxHours].
func HoursWindow(hours int) time.Duration {
	if hours < 0 {
		hours = 0
	}
	if hours > MaxHours {
		hours = MaxHours
	}
	return time.Duration(hours) * time.Hour
}

// ClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the peer address.
func ClientIP(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		if ip := strings.TrimSpace(strings.Split(forwarded, ",")[0]); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(c.GetHeader("X-Real-IP")); realIP != "" {
		return realIP
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

// UserAgent returns the request user agent, or "unknown".
func UserAgent(c *gin.Context) string {
	if ua := c.GetHeader("User-Agent"); ua != "" {
		return ua
	}
	return "unknown"
}

// ParseHours reads the hours lookback parameter. Missing means DefaultHours.
func ParseHours(raw string) (int, error) {
	return parseCount("hours", raw, DefaultHours, MaxHours)
}

// ParseDays reads the days lookback parameter. Missing means DefaultDays.
func ParseDays(raw string) (int, error) {
	return parseCount("days", raw, DefaultDays, MaxDays)
}

func parseCount(name, raw string, def, limit int) (int, error) {
	if raw == "" {
		return def, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %q", name, raw)
	}
	if n < 1 || n > limit {
		return 0, fmt.Errorf("%s must be between 1 and %d, got %d", name, limit, n)
	}

	return n, nil
}

// Truncate cuts s to at most n characters.
func Truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
