package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio/api/models"
	"portfolio/api/utils"
)

// Reports is the read side of the analytics package.
type Reports interface {
	Summary(hours int) models.Summary
	Geographic(hours int) models.GeographicReport
	Performance(hours int) models.PerformanceReport
	Behavior(hours int) models.BehaviorReport
	Conversions(hours int) models.ConversionReport
	RealTime() models.RealTimeReport
	Trends(days int) models.TrendsReport
}

// AnalyticsHandlers serve the admin analytics reports. Every route but trends takes an hours lookback.
type AnalyticsHandlers struct {
	Reports Reports
}

func NewAnalyticsHandlers(reports Reports) *AnalyticsHandlers {
	return &AnalyticsHandlers{Reports: reports}
}

// hours reads the hours query parameter and writes a 400 when it is invalid.
func hours(c *gin.Context) (int, bool) {
	h, err := utils.ParseHours(c.Query("hours"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'hours' parameter", "details": err.Error()})
		return 0, false
	}
	return h, true
}

func (h *AnalyticsHandlers) GetSummary(c *gin.Context) {
	if n, ok := hours(c); ok {
		c.JSON(http.StatusOK, h.Reports.Summary(n))
	}
}

func (h *AnalyticsHandlers) GetGeographic(c *gin.Context) {
	if n, ok := hours(c); ok {
		c.JSON(http.StatusOK, h.Reports.Geographic(n))
	}
}

// GetPerformance answers 200 with an error field when the window has no samples.
func (h *AnalyticsHandlers) GetPerformance(c *gin.Context) {
	if n, ok := hours(c); ok {
		c.JSON(http.StatusOK, h.Reports.Performance(n))
	}
}

func (h *AnalyticsHandlers) GetUserBehavior(c *gin.Context) {
	if n, ok := hours(c); ok {
		c.JSON(http.StatusOK, h.Reports.Behavior(n))
	}
}

func (h *AnalyticsHandlers) GetConversions(c *gin.Context) {
	if n, ok := hours(c); ok {
		c.JSON(http.StatusOK, h.Reports.Conversions(n))
	}
}

func (h *AnalyticsHandlers) GetRealTime(c *gin.Context) {
	c.JSON(http.StatusOK, h.Reports.RealTime())
}

// GetTrends reports per-day totals. days defaults to 7 and is capped at 365.
func (h *AnalyticsHandlers) GetTrends(c *gin.Context) {
	days, err := utils.ParseDays(c.Query("days"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'days' parameter", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.Reports.Trends(days))
}
