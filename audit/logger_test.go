package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/api/models"
)

func newTestLogger(t *testing.T) (*Logger, clockwork.FakeClock, *test.Hook) {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC))
	logger, hook := test.NewNullLogger()
	store := NewFileStore(filepath.Join(t.TempDir(), "audit.log"))

	return NewLogger(store, clock, logger), clock, hook
}

func entry(eventType, ip string, status int) models.AuditEntry {
	return models.AuditEntry{
		EventType:  eventType,
		UserIP:     ip,
		UserAgent:  "go-test",
		Endpoint:   "/api/test",
		Method:     "GET",
		StatusCode: status,
	}
}

func TestLogger_Record(t *testing.T) {
	t.Run("PersistsSanitizedEntry", func(t *testing.T) {
		logger, clock, _ := newTestLogger(t)

		e := entry("admin_login", "10.0.0.1", 200)
		e.RequestData = map[string]interface{}{"password": "hunter2", "email": "a@example.com"}
		logger.Record(e)

		entries, err := logger.Query(1, "")
		require.NoError(t, err)
		require.Len(t, entries, 1)

		assert.Equal(t, Redacted, entries[0].RequestData["password"])
		assert.Equal(t, "a@example.com", entries[0].RequestData["email"])
		assert.True(t, entries[0].Timestamp.Equal(clock.Now()))
	})

	t.Run("LogsImportantEvents", func(t *testing.T) {
		logger, _, hook := newTestLogger(t)

		logger.Record(entry("api_request", "10.0.0.1", 200))
		assert.Empty(t, hook.AllEntries())

		logger.Record(entry("error", "10.0.0.1", 404))
		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, "AUDIT: error - GET /api/test - Status: 404 - IP: 10.0.0.1", hook.LastEntry().Message)

		admin := entry("admin_action", "10.0.0.1", 200)
		admin.AdminAction = true
		logger.Record(admin)
		assert.Len(t, hook.AllEntries(), 2)
	})

	t.Run("SwallowsWriteFailure", func(t *testing.T) {
		log, hook := test.NewNullLogger()
		// A directory cannot be opened for writing.
		logger := NewLogger(NewFileStore(t.TempDir()), clockwork.NewFakeClock(), log)

		assert.NotPanics(t, func() {
			logger.Record(entry("api_request", "10.0.0.1", 200))
		})

		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
		assert.Equal(t, "failed to write audit log", hook.LastEntry().Message)
	})

	t.Run("ConcurrentWrites", func(t *testing.T) {
		logger, _, _ := newTestLogger(t)

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				logger.Record(entry("api_request", fmt.Sprintf("10.0.0.%d", i), 200))
			}(i)
		}
		wg.Wait()

		entries, err := logger.Query(1, "")
		require.NoError(t, err)
		assert.Len(t, entries, 50)
	})
}

func TestLogger_Query(t *testing.T) {
	logger, clock, _ := newTestLogger(t)

	logger.Record(entry("api_request", "10.0.0.1", 200))
	clock.Advance(2 * time.Hour)
	logger.Record(entry("error", "10.0.0.1", 500))
	clock.Advance(time.Minute)
	logger.Record(entry("api_request", "10.0.0.2", 200))

	t.Run("NewestFirst", func(t *testing.T) {
		entries, err := logger.Query(24, "")
		require.NoError(t, err)
		require.Len(t, entries, 3)

		assert.Equal(t, "10.0.0.2", entries[0].UserIP)
		assert.Equal(t, "error", entries[1].EventType)
		assert.Equal(t, "10.0.0.1", entries[2].UserIP)
	})

	t.Run("Window", func(t *testing.T) {
		entries, err := logger.Query(1, "")
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("EventType", func(t *testing.T) {
		entries, err := logger.Query(24, "api_request")
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})
}

func TestFileStore_Scan(t *testing.T) {
	t.Run("MissingFile", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "missing.log"))

		var n int
		require.NoError(t, store.Scan(func(models.AuditEntry) { n++ }))
		assert.Zero(t, n)
	})

	t.Run("SkipsMalformedLines", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "audit.log")
		store := NewFileStore(path)
		require.NoError(t, store.Append(entry("api_request", "10.0.0.1", 200)))

		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
		require.NoError(t, err)
		_, err = f.WriteString("{not json\n\n")
		require.NoError(t, err)
		require.NoError(t, f.Close())

		require.NoError(t, store.Append(entry("error", "10.0.0.2", 500)))

		var got []string
		require.NoError(t, store.Scan(func(e models.AuditEntry) { got = append(got, e.EventType) }))
		assert.Equal(t, []string{"api_request", "error"}, got)
	})
}

func TestLogger_Alerts(t *testing.T) {
	t.Run("Thresholds", func(t *testing.T) {
		logger, _, _ := newTestLogger(t)

		for i := 0; i < 51; i++ {
			logger.Record(entry("api_request", "10.0.0.1", 200))
		}
		for i := 0; i < 50; i++ {
			logger.Record(entry("api_request", "10.0.0.2", 200))
		}
		for i := 0; i < 11; i++ {
			logger.Record(entry("admin_login", fmt.Sprintf("10.0.1.%d", i), 401))
		}
		logger.Record(entry("rate_limit_exceeded", "10.0.0.3", 429))

		alerts, err := logger.Alerts(24)
		require.NoError(t, err)
		require.Len(t, alerts, 3)

		assert.Equal(t, models.AlertHighActivity, alerts[0].Type)
		assert.Equal(t, "10.0.0.1", alerts[0].IP)
		assert.Equal(t, 51, alerts[0].Count)

		assert.Equal(t, models.AlertFailedLogins, alerts[1].Type)
		assert.Equal(t, 11, alerts[1].Count)

		assert.Equal(t, models.AlertRateLimitViolations, alerts[2].Type)
		assert.Equal(t, 1, alerts[2].Count)
		assert.Equal(t, "Rate limit violations: 1", alerts[2].Description)
	})

	t.Run("BelowThresholds", func(t *testing.T) {
		logger, _, _ := newTestLogger(t)

		for i := 0; i < 10; i++ {
			logger.Record(entry("admin_login", "10.0.0.1", 401))
		}

		alerts, err := logger.Alerts(24)
		require.NoError(t, err)
		assert.Empty(t, alerts)
	})
}
