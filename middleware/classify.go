package middleware

import "strings"

// Operation categories. Only the first group has its own quota; the rest use the default.
const (
	CategoryContactSendMessage  = "contact_send_message"
	CategoryContactBookCall     = "contact_book_call"
	CategoryReviewCreate        = "review_create"
	CategoryNewsletterSubscribe = "newsletter_subscribe"
	CategoryResumeDownload      = "resume_download"
	CategoryAdminLogin          = "admin_login"
	CategoryAdminChangePassword = "admin_change_password"

	CategoryAdminAnalytics = "admin_analytics"
	CategoryAdminDashboard = "admin_dashboard"
	CategoryAdminGeneral   = "admin_general"
	CategoryGeneral        = "api_general"
)

var dashboardPrefixes = []string{
	"/api/experience",
	"/api/projects",
	"/api/reviews/admin",
	"/api/newsletter/admin",
	"/api/contact/admin",
	"/api/leads",
}

// Classify maps a request to its rate-limit category. Rules are checked in order.
func Classify(path, method string) string {
	switch {
	case strings.HasPrefix(path, "/api/contact/send-message"):
		return CategoryContactSendMessage
	case strings.HasPrefix(path, "/api/contact/book-call"):
		return CategoryContactBookCall
	case strings.HasPrefix(path, "/api/reviews") && method == "POST":
		return CategoryReviewCreate
	case strings.HasPrefix(path, "/api/newsletter/subscribe"):
		return CategoryNewsletterSubscribe
	case strings.HasPrefix(path, "/api/resume/download"):
		return CategoryResumeDownload
	case strings.HasPrefix(path, "/api/auth/login"):
		return CategoryAdminLogin
	case strings.HasPrefix(path, "/api/auth/change-password"):
		return CategoryAdminChangePassword
	case strings.HasPrefix(path, "/api/analytics") && method == "GET":
		return CategoryAdminAnalytics
	}

	for _, prefix := range dashboardPrefixes {
		if strings.HasPrefix(path, prefix) {
			return CategoryAdminDashboard
		}
	}

	if strings.HasPrefix(path, "/api/admin") || strings.HasPrefix(path, "/api/security") {
		return CategoryAdminGeneral
	}
	return CategoryGeneral
}

func IsAdminCategory(category string) bool {
	return strings.HasPrefix(category, "admin_")
}

// EventType names the audit event for a finished request.
func EventType(path string, status int) string {
	switch {
	case strings.HasPrefix(path, "/api/auth/login"):
		return "admin_login"
	case strings.HasPrefix(path, "/api/auth/change-password"):
		return "admin_change_password"
	case strings.HasPrefix(path, "/api/contact/send-message"):
		return "contact_message"
	case strings.HasPrefix(path, "/api/contact/book-call"):
		return "call_booking"
	case strings.HasPrefix(path, "/api/reviews"):
		return "review_action"
	case strings.HasPrefix(path, "/api/newsletter/subscribe"):
		return "newsletter_subscription"
	case strings.HasPrefix(path, "/api/resume/download"):
		return "resume_download"
	case strings.HasPrefix(path, "/api/admin"):
		return "admin_action"
	case status >= 400:
		return "error"
	default:
		return "api_request"
	}
}

var frontendRoutes = map[string]struct{}{
	"/":            {},
	"/about":       {},
	"/projects":    {},
	"/experience":  {},
	"/contact":     {},
	"/resume":      {},
	"/admin":       {},
	"/admin/login": {},
}

func isFrontendRoute(path string) bool {
	if _, ok := frontendRoutes[path]; ok {
		return true
	}
	return strings.HasPrefix(path, "/admin/")
}

type route struct {
	path   string
	method string
}

var userActions = map[route]string{
	{"/api/contact/send-message", "POST"}:       "contact_form_submit",
	{"/api/contact/book-call", "POST"}:          "call_booking",
	{"/api/reviews", "POST"}:                    "review_submit",
	{"/api/newsletter/subscribe", "POST"}:       "newsletter_signup",
	{"/api/resume/download", "GET"}:             "resume_download",
	{"/api/analytics/track/conversion", "POST"}: "conversion_tracked",
	{"/api/analytics/track/behavior", "POST"}:   "behavior_tracked",
}

func userAction(path, method string) (string, bool) {
	action, ok := userActions[route{path, method}]
	return action, ok
}
