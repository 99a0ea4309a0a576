package utils

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "ForwardedFor", headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, want: "203.0.113.7"},
		{name: "RealIP", headers: map[string]string{"X-Real-IP": "198.51.100.4"}, want: "198.51.100.4"},
		{name: "ForwardedWins", headers: map[string]string{"X-Forwarded-For": "203.0.113.7", "X-Real-IP": "198.51.100.4"}, want: "203.0.113.7"},
		{name: "PeerAddress", want: "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}

			assert.Equal(t, tt.want, ClientIP(c))
		})
	}
}

func TestUserAgent(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "unknown", UserAgent(c))

	c.Request.Header.Set("User-Agent", "go-test")
	assert.Equal(t, "go-test", UserAgent(c))
}

func TestParseHours(t *testing.T) {
	hours, err := ParseHours("")
	require.NoError(t, err)
	assert.Equal(t, 24, hours)

	hours, err = ParseHours("168")
	require.NoError(t, err)
	assert.Equal(t, 168, hours)

	hours, err = ParseHours(strconv.Itoa(MaxHours))
	require.NoError(t, err)
	assert.Equal(t, MaxHours, hours)

	for _, raw := range []string{"0", "-3", "abc", "1.5", "3000000", strconv.Itoa(MaxHours + 1)} {
		_, err := ParseHours(raw)
		assert.Error(t, err, raw)
	}
}

func TestParseDays(t *testing.T) {
	days, err := ParseDays("")
	require.NoError(t, err)
	assert.Equal(t, 7, days)

	days, err = ParseDays("365")
	require.NoError(t, err)
	assert.Equal(t, 365, days)

	for _, raw := range []string{"0", "366", "week"} {
		_, err := ParseDays(raw)
		assert.Error(t, err, raw)
	}
}

func TestHoursWindow(t *testing.T) {
	assert.Equal(t, 24*time.Hour, HoursWindow(24))
	assert.Equal(t, time.Duration(0), HoursWindow(-5))
	assert.Equal(t, time.Duration(MaxHours)*time.Hour, HoursWindow(math.MaxInt32))
	assert.Positive(t, HoursWindow(math.MaxInt))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "hé", Truncate("héllo", 2))
	assert.Equal(t, "日本", Truncate("日本語", 2))

	ua := strings.Repeat("ü", 150)
	short := Truncate(ua, 100)
	assert.True(t, utf8.ValidString(short))
	assert.Equal(t, 100, utf8.RuneCountInString(short))
}
