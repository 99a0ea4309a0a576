package audit

import "strings"

// Redacted replaces the value of every sensitive key.
const Redacted = "***REDACTED***"

var sensitiveTerms = []string{"password", "token", "secret", "key"}

func isSensitive(key string) bool {
	key = strings.ToLower(key)
	for _, term := range sensitiveTerms {
		if strings.Contains(key, term) {
			return true
		}
	}
	return false
}

// Sanitize returns a copy of data with sensitive keys redacted at any depth.
func Sanitize(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return nil
	}

	out := make(map[string]interface{}, len(data))
	for key, value := range data {
		if isSensitive(key) {
			out[key] = Redacted
			continue
		}
		out[key] = sanitizeValue(value)
	}
	return out
}

func sanitizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return Sanitize(v)
	case map[string]string:
		out := make(map[string]interface{}, len(v))
		for key, s := range v {
			if isSensitive(key) {
				out[key] = Redacted
				continue
			}
			out[key] = s
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = sanitizeValue(item)
		}
		return out
	case []map[string]interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = Sanitize(item)
		}
		return out
	default:
		return value
	}
}
