package ratelimit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePolicyFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ratelimit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoadPolicies(t *testing.T) {
	t.Run("EmptyPathReturnsDefaults", func(t *testing.T) {
		policies, err := LoadPolicies("")
		require.NoError(t, err)

		assert.Equal(t, DefaultPolicies(), policies)
	})

	t.Run("MergesOverrides", func(t *testing.T) {
		path := writePolicyFile(t, `
contact_send_message:
  requests: 10
  window: 60
project_view:
  requests: 30
  window: 600
`)

		policies, err := LoadPolicies(path)
		require.NoError(t, err)

		assert.Equal(t, Policy{MaxRequests: 10, Window: time.Minute}, policies["contact_send_message"])
		assert.Equal(t, Policy{MaxRequests: 30, Window: 10 * time.Minute}, policies["project_view"])
		assert.Equal(t, Policy{MaxRequests: 100, Window: time.Hour}, policies[DefaultCategory])
	})

	t.Run("RejectsUnlimitedQuota", func(t *testing.T) {
		path := writePolicyFile(t, `
admin_login:
  requests: 0
  window: 300
`)

		_, err := LoadPolicies(path)
		assert.Error(t, err)
	})

	t.Run("RejectsMalformedFile", func(t *testing.T) {
		_, err := LoadPolicies(writePolicyFile(t, "admin_login: [1, 2"))
		assert.Error(t, err)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := LoadPolicies(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestPolicies_Lookup(t *testing.T) {
	policies := DefaultPolicies()

	assert.Equal(t, 2, policies.Lookup("review_create").MaxRequests)
	assert.Equal(t, policies[DefaultCategory], policies.Lookup("unknown"))
}

func TestPolicies_Validate(t *testing.T) {
	err := Policies{"admin_login": {MaxRequests: 5, Window: time.Minute}}.Validate()
	assert.Error(t, err)

	assert.NoError(t, DefaultPolicies().Validate())
}

func TestPolicies_Configs(t *testing.T) {
	configs := DefaultPolicies().Configs()

	require.Len(t, configs, len(DefaultPolicies()))
	assert.Equal(t, 5, configs["contact_send_message"].MaxRequests)
	assert.Equal(t, 300, configs["contact_send_message"].WindowSeconds)
	assert.Equal(t, 5, configs["contact_send_message"].WindowMinutes)
	assert.Equal(t, 3600, configs[DefaultCategory].WindowSeconds)
}
