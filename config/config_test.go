package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET_KEY", "test-secret")

		config, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8080", config.Port)
		assert.Equal(t, []string{"http://localhost:3000"}, config.Origins())
		assert.Equal(t, time.Hour, config.JWT.TTL)
		assert.Equal(t, "audit.log", config.Audit.LogFile)
		assert.False(t, config.ClickHouse.Enabled())
		assert.True(t, config.Metrics.Enabled)
	})

	t.Run("Environment", func(t *testing.T) {
		t.Setenv("JWT_SECRET_KEY", "test-secret")
		t.Setenv("JWT_TTL", "30m")
		t.Setenv("PORT", "9090")
		t.Setenv("FE_ORIGIN", "https://a.example.com, https://b.example.com")
		t.Setenv("CLICKHOUSE_HOST", "clickhouse")
		t.Setenv("CLICKHOUSE_NATIVE_PORT", "9440")
		t.Setenv("CLICKHOUSE_DB_NAME", "analytics")
		t.Setenv("RATELIMIT_POLICY_FILE", "/etc/ratelimit.yaml")
		t.Setenv("METRICS_ENABLED", "false")

		config, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9090", config.Port)
		assert.Equal(t, 30*time.Minute, config.JWT.TTL)
		assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, config.Origins())
		assert.Equal(t, ClickHouseConfig{
			Host:       "clickhouse",
			NativePort: 9440,
			DBName:     "analytics",
			Username:   "default",
		}, config.ClickHouse)
		assert.Equal(t, "/etc/ratelimit.yaml", config.RateLimit.PolicyFile)
		assert.False(t, config.Metrics.Enabled)
	})

	t.Run("MissingSecret", func(t *testing.T) {
		t.Setenv("JWT_SECRET_KEY", "")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	config := Config{
		Port:     "8080",
		GinMode:  "verbose",
		FEOrigin: " , ",
		JWT:      JWTConfig{TTL: time.Hour},
		Admin:    AdminConfig{Email: "admin@example.com", Password: "admin123"},
		Audit:    AuditConfig{LogFile: "audit.log"},
		ClickHouse: ClickHouseConfig{
			Host: "clickhouse",
		},
	}

	err := config.Validate()
	require.Error(t, err)

	for _, msg := range []string{
		"gin mode must be debug, release or test",
		"at least one frontend origin is required",
		"jwt secret key is required",
		"clickhouse native port must be positive",
		"clickhouse database name is required",
	} {
		assert.Contains(t, err.Error(), msg)
	}
}
