package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"portfolio/api/models"
	"portfolio/api/utils"
)

// Recorder is the write side of the analytics package used by route handlers.
type Recorder interface {
	RecordPageView(client models.ClientIdentity, page, referrer, sessionID string) models.Event
	RecordConversion(client models.ClientIdentity, conversionType, sessionID string, metadata map[string]interface{}) models.Event
	RecordBehavior(client models.ClientIdentity, action, sessionID string, data map[string]interface{}) models.Event
}

type TrackHandlers struct {
	Recorder Recorder
}

func NewTrackHandlers(recorder Recorder) *TrackHandlers {
	return &TrackHandlers{Recorder: recorder}
}

func clientIdentity(c *gin.Context) models.ClientIdentity {
	return models.ClientIdentity{IP: utils.ClientIP(c), UserAgent: utils.UserAgent(c)}
}

// parseJSONParam decodes a JSON object passed as a query string. Anything else is kept raw under rawKey.
func parseJSONParam(raw, rawKey string) map[string]interface{} {
	if raw == "" {
		return nil
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return map[string]interface{}{rawKey: raw}
	}
	return parsed
}

// TrackPageView records a frontend page view. Admin pages are acknowledged but not recorded.
func (h *TrackHandlers) TrackPageView(c *gin.Context) {
	page := c.Query("page")
	if page == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page query parameter is required"})
		return
	}

	if strings.HasPrefix(page, "/admin") {
		c.JSON(http.StatusOK, gin.H{"message": "Admin route skipped", "success": true})
		return
	}

	h.Recorder.RecordPageView(clientIdentity(c), page, c.Query("referrer"), c.Query("session_id"))
	c.JSON(http.StatusOK, gin.H{"message": "Page view tracked", "success": true})
}

func (h *TrackHandlers) TrackConversion(c *gin.Context) {
	conversionType := c.Query("conversion_type")
	if conversionType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversion_type query parameter is required"})
		return
	}

	metadata := parseJSONParam(c.Query("metadata"), "raw_metadata")
	h.Recorder.RecordConversion(clientIdentity(c), conversionType, c.Query("session_id"), metadata)
	c.JSON(http.StatusOK, gin.H{"message": "Conversion tracked", "success": true})
}

// TrackBehavior records a user action. Actions mentioning admin are acknowledged but not recorded.
func (h *TrackHandlers) TrackBehavior(c *gin.Context) {
	action := c.Query("action")
	if action == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action query parameter is required"})
		return
	}

	if strings.Contains(strings.ToLower(action), "admin") {
		c.JSON(http.StatusOK, gin.H{"message": "Admin behavior skipped", "success": true})
		return
	}

	data := parseJSONParam(c.Query("data"), "raw_data")
	h.Recorder.RecordBehavior(clientIdentity(c), action, c.Query("session_id"), data)
	c.JSON(http.StatusOK, gin.H{"message": "Behavior tracked", "success": true})
}
