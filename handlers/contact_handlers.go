package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"portfolio/api/models"
)

const (
	ConversionContactMessage = "contact_message"
	ConversionCallBooking    = "call_booking"

	defaultLeadLimit = 100
	maxLeadLimit     = 500
)

// Leads persists contact messages and call bookings.
type Leads interface {
	Create(ctx context.Context, lead models.Lead) (models.Lead, error)
	List(ctx context.Context, limit int) ([]models.Lead, error)
}

type ContactHandlers struct {
	Leads    Leads
	Recorder Recorder
	logger   logrus.FieldLogger
}

func NewContactHandlers(leads Leads, recorder Recorder, logger logrus.FieldLogger) *ContactHandlers {
	return &ContactHandlers{Leads: leads, Recorder: recorder, logger: logger}
}

func (h *ContactHandlers) SendMessage(c *gin.Context) {
	var req models.ContactMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, email, and message are required.", "details": err.Error()})
		return
	}

	lead, err := h.Leads.Create(c.Request.Context(), models.Lead{
		Kind:    models.LeadMessage,
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		h.logger.WithError(err).Error("failed to store contact message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	h.Recorder.RecordConversion(clientIdentity(c), ConversionContactMessage, c.GetHeader("X-Session-ID"), map[string]interface{}{
		"lead_id":     lead.ID,
		"has_subject": req.Subject != "",
	})

	c.JSON(http.StatusOK, gin.H{"message": "Message sent successfully.", "success": true})
}

func (h *ContactHandlers) BookCall(c *gin.Context) {
	var req models.BookCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, email and preferred time are required.", "details": err.Error()})
		return
	}

	preferred := req.PreferredTime.UTC()
	lead, err := h.Leads.Create(c.Request.Context(), models.Lead{
		Kind:          models.LeadCall,
		Name:          req.Name,
		Email:         req.Email,
		Subject:       req.Topic,
		PreferredTime: &preferred,
	})
	if err != nil {
		h.logger.WithError(err).Error("failed to store call booking")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to book call"})
		return
	}

	h.Recorder.RecordConversion(clientIdentity(c), ConversionCallBooking, c.GetHeader("X-Session-ID"), map[string]interface{}{
		"lead_id": lead.ID,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Call booked successfully.", "success": true, "call": lead})
}

// List returns the most recent leads. limit defaults to 100 and is capped at 500.
func (h *ContactHandlers) List(c *gin.Context) {
	limit := defaultLeadLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'limit' parameter. Must be a positive integer."})
			return
		}
		limit = parsed
	}
	if limit > maxLeadLimit {
		limit = maxLeadLimit
	}

	leads, err := h.Leads.List(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("failed to list leads")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list leads"})
		return
	}

	c.JSON(http.StatusOK, leads)
}
