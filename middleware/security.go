package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"portfolio/api/models"
	"portfolio/api/ratelimit"
	"portfolio/api/utils"
)

// Limiter admits or rejects a request for an operation category.
type Limiter interface {
	Admit(client models.ClientIdentity, category string) ratelimit.Decision
}

// Auditor persists request outcomes. Record must not fail the request.
type Auditor interface {
	Record(entry models.AuditEntry)
}

// Tracker receives the analytics signals of a handled request.
type Tracker interface {
	RecordPageView(client models.ClientIdentity, page, referrer, sessionID string) models.Event
	RecordBehavior(client models.ClientIdentity, action, sessionID string, data map[string]interface{}) models.Event
	RecordPerformance(client models.ClientIdentity, endpoint string, latency time.Duration, statusCode int) models.Event
}

const (
	headerResponseTime = "X-Response-Time"
	headerSessionID    = "X-Session-ID"
)

var excludedHeaders = map[string]struct{}{
	"authorization": {},
	"cookie":        {},
	"x-api-key":     {},
}

// SecurityOption configures the interception middleware.
type SecurityOption interface {
	apply(o *securityOptions)
}

type securityOptions struct {
	clock   clockwork.Clock
	metrics *Metrics
	logger  logrus.FieldLogger
}

type securityOptionFunc func(o *securityOptions)

func (fn securityOptionFunc) apply(o *securityOptions) {
	fn(o)
}

func WithClock(clock clockwork.Clock) SecurityOption {
	return securityOptionFunc(func(o *securityOptions) {
		o.clock = clock
	})
}

func WithMetrics(metrics *Metrics) SecurityOption {
	return securityOptionFunc(func(o *securityOptions) {
		o.metrics = metrics
	})
}

func WithLogger(logger logrus.FieldLogger) SecurityOption {
	return securityOptionFunc(func(o *securityOptions) {
		o.logger = logger
	})
}

// Security classifies each request, applies the rate limit, runs the handler chain
// and then records audit and analytics data. Handler panics become 500 responses.
// OPTIONS requests pass straight through.
func Security(limiter Limiter, auditor Auditor, tracker Tracker, opts ...SecurityOption) gin.HandlerFunc {
	options := securityOptions{
		clock:  clockwork.NewRealClock(),
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt.apply(&options)
	}

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := options.clock.Now()
		path, method := c.Request.URL.Path, c.Request.Method
		client := models.ClientIdentity{IP: utils.ClientIP(c), UserAgent: utils.UserAgent(c)}
		category := Classify(path, method)
		admin := IsAdminCategory(category)

		decision := limiter.Admit(client, category)

		setSecurityHeaders(c.Writer.Header())
		setRateLimitHeaders(c.Writer.Header(), decision)

		if !decision.Allowed {
			now := options.clock.Now()
			auditor.Record(models.AuditEntry{
				Timestamp:   now.UTC(),
				EventType:   "rate_limit_exceeded",
				UserIP:      client.IP,
				UserAgent:   client.UserAgent,
				Endpoint:    path,
				Method:      method,
				StatusCode:  http.StatusTooManyRequests,
				AdminAction: admin,
				RequestData: requestData(c),
			})
			options.metrics.observeRejected(category)

			c.Header(headerResponseTime, formatElapsed(options.clock.Since(start)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":              "Rate limit exceeded",
				"message":            fmt.Sprintf("Too many requests. Try again in %d seconds.", int(decision.RetryAfter(now).Seconds())),
				"remaining_requests": decision.Remaining,
				"limit":              decision.Limit,
				"reset_time":         float64(decision.ResetAt.UnixNano()) / float64(time.Second),
			})
			return
		}

		writer := &timedWriter{ResponseWriter: c.Writer, clock: options.clock, start: start}
		c.Writer = writer

		serve(c, options.logger)

		writer.stamp()
		c.Writer = writer.ResponseWriter

		status := c.Writer.Status()
		latency := options.clock.Since(start)
		sessionID := c.GetHeader(headerSessionID)

		tracker.RecordPerformance(client, path, latency, status)
		if isFrontendRoute(path) {
			tracker.RecordPageView(client, path, c.GetHeader("Referer"), sessionID)
		}
		if action, ok := userAction(path, method); ok {
			tracker.RecordBehavior(client, action, sessionID, actionData(c))
		}

		entry := models.AuditEntry{
			Timestamp:   options.clock.Now().UTC(),
			EventType:   EventType(path, status),
			UserIP:      client.IP,
			UserAgent:   client.UserAgent,
			Endpoint:    path,
			Method:      method,
			StatusCode:  status,
			UserID:      c.GetString(ContextKeyAdminEmail),
			AdminAction: admin,
			RequestData: requestData(c),
		}
		if status < http.StatusBadRequest {
			size := c.Writer.Size()
			if size < 0 {
				size = 0
			}
			entry.ResponseData = map[string]interface{}{
				"status_code":    status,
				"content_length": size,
			}
		}
		auditor.Record(entry)

		options.metrics.observeHandled(category, status, latency.Seconds())
	}
}

// serve runs the rest of the chain and turns a panic into a 500 when nothing was written yet.
func serve(c *gin.Context, logger logrus.FieldLogger) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logrus.Fields{
				"panic":  r,
				"method": c.Request.Method,
				"path":   c.Request.URL.Path,
			}).Error("recovered from handler panic")

			_ = c.Error(fmt.Errorf("panic: %v", r))
			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": fmt.Sprint(r),
			})
		}
	}()

	c.Next()
}

func setSecurityHeaders(h http.Header) {
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("X-XSS-Protection", "1; mode=block")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
}

func setRateLimitHeaders(h http.Header, decision ratelimit.Decision) {
	h.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
}

// requestData is the audit snapshot of a request. Credentials headers are left out.
func requestData(c *gin.Context) map[string]interface{} {
	query := make(map[string]interface{})
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			query[key] = values[len(values)-1]
		}
	}

	headers := make(map[string]interface{})
	for key, values := range c.Request.Header {
		key = strings.ToLower(key)
		if _, skip := excludedHeaders[key]; skip {
			continue
		}
		headers[key] = strings.Join(values, ", ")
	}

	return map[string]interface{}{
		"method":       c.Request.Method,
		"path":         c.Request.URL.Path,
		"query_params": query,
		"headers":      headers,
	}
}

func actionData(c *gin.Context) map[string]interface{} {
	if c.Request.Method != http.MethodPost {
		return map[string]interface{}{}
	}

	length := c.GetHeader("Content-Length")
	if length == "" {
		length = "0"
	}
	return map[string]interface{}{
		"content_type":   c.GetHeader("Content-Type"),
		"content_length": length,
	}
}

func formatElapsed(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// timedWriter sets X-Response-Time just before the header is flushed.
type timedWriter struct {
	gin.ResponseWriter
	clock   clockwork.Clock
	start   time.Time
	stamped bool
}

func (w *timedWriter) stamp() {
	if w.stamped || w.ResponseWriter.Written() {
		return
	}
	w.stamped = true
	w.Header().Set(headerResponseTime, formatElapsed(w.clock.Since(w.start)))
}

func (w *timedWriter) WriteHeaderNow() {
	w.stamp()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *timedWriter) Write(data []byte) (int, error) {
	w.stamp()
	return w.ResponseWriter.Write(data)
}

func (w *timedWriter) WriteString(s string) (int, error) {
	w.stamp()
	return w.ResponseWriter.WriteString(s)
}
