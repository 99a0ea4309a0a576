package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"portfolio/api/models"
	"portfolio/api/store"
)

const (
	ConversionNewsletterSignup = "newsletter_signup"

	recentSubscriberWindow = 7 * 24 * time.Hour
)

// Subscribers persists newsletter subscriptions.
type Subscribers interface {
	Subscribe(ctx context.Context, email string) (models.Subscriber, error)
	List(ctx context.Context) ([]models.Subscriber, error)
	Stats(ctx context.Context, recentSince time.Time) (models.NewsletterStats, error)
	Delete(ctx context.Context, id int) error
}

type NewsletterHandlers struct {
	Subscribers Subscribers
	Recorder    Recorder
	logger      logrus.FieldLogger
}

func NewNewsletterHandlers(subscribers Subscribers, recorder Recorder, logger logrus.FieldLogger) *NewsletterHandlers {
	return &NewsletterHandlers{Subscribers: subscribers, Recorder: recorder, logger: logger}
}

// Subscribe stores the address and records a newsletter_signup conversion.
// A repeated address is answered with success false, not an error status.
func (h *NewsletterHandlers) Subscribe(c *gin.Context) {
	var req models.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required.", "details": err.Error()})
		return
	}

	sub, err := h.Subscribers.Subscribe(c.Request.Context(), req.Email)
	if errors.Is(err, store.ErrAlreadySubscribed) {
		c.JSON(http.StatusOK, gin.H{"message": "Email already subscribed.", "success": false})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("failed to store newsletter subscriber")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to subscribe"})
		return
	}

	h.Recorder.RecordConversion(clientIdentity(c), ConversionNewsletterSignup, c.GetHeader("X-Session-ID"), map[string]interface{}{
		"email_domain": emailDomain(sub.Email),
	})

	c.JSON(http.StatusOK, gin.H{
		"message":    "Subscribed successfully.",
		"success":    true,
		"subscriber": gin.H{"email": sub.Email},
	})
}

func (h *NewsletterHandlers) List(c *gin.Context) {
	subscribers, err := h.Subscribers.List(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("failed to list newsletter subscribers")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list subscribers"})
		return
	}

	c.JSON(http.StatusOK, subscribers)
}

// Stats counts subscribers, counting the last seven days as recent.
func (h *NewsletterHandlers) Stats(c *gin.Context) {
	stats, err := h.Subscribers.Stats(c.Request.Context(), time.Now().UTC().Add(-recentSubscriberWindow))
	if err != nil {
		h.logger.WithError(err).Error("failed to read newsletter stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read newsletter statistics"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *NewsletterHandlers) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscriber id"})
		return
	}

	err = h.Subscribers.Delete(c.Request.Context(), id)
	if errors.Is(err, store.ErrSubscriberNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscriber not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("id", id).Error("failed to delete newsletter subscriber")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete subscriber"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Subscriber deleted successfully", "success": true})
}

func emailDomain(email string) string {
	if i := strings.LastIndex(email, "@"); i >= 0 {
		return email[i+1:]
	}
	return ""
}
