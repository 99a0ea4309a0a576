package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/api/models"
)

var visitor = models.ClientIdentity{IP: "203.0.113.7", UserAgent: "go-test"}

func newTestLimiter() (*Limiter, clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC))
	return NewLimiter(DefaultPolicies(), clock), clock
}

func TestLimiter_Admit(t *testing.T) {
	t.Run("RejectsPastLimit", func(t *testing.T) {
		limiter, _ := newTestLimiter()

		for i := 0; i < 5; i++ {
			decision := limiter.Admit(visitor, "contact_send_message")
			require.True(t, decision.Allowed, "request %d", i+1)
			assert.Equal(t, 4-i, decision.Remaining)
			assert.Equal(t, 5, decision.Limit)
		}

		decision := limiter.Admit(visitor, "contact_send_message")
		assert.False(t, decision.Allowed)
		assert.Equal(t, 0, decision.Remaining)
		assert.Equal(t, 5*time.Minute, decision.Window)
	})

	t.Run("AdmitsAgainAfterWindow", func(t *testing.T) {
		limiter, clock := newTestLimiter()

		for i := 0; i < 3; i++ {
			require.True(t, limiter.Admit(visitor, "contact_book_call").Allowed)
		}
		require.False(t, limiter.Admit(visitor, "contact_book_call").Allowed)

		clock.Advance(5*time.Minute + time.Second)

		decision := limiter.Admit(visitor, "contact_book_call")
		assert.True(t, decision.Allowed)
		assert.Equal(t, 2, decision.Remaining)
	})

	t.Run("SlidesInsteadOfResetting", func(t *testing.T) {
		limiter, clock := newTestLimiter()

		require.True(t, limiter.Admit(visitor, "review_create").Allowed)
		clock.Advance(30 * time.Minute)
		require.True(t, limiter.Admit(visitor, "review_create").Allowed)
		require.False(t, limiter.Admit(visitor, "review_create").Allowed)

		// Only the first request has left the window.
		clock.Advance(31 * time.Minute)
		assert.True(t, limiter.Admit(visitor, "review_create").Allowed)
		assert.False(t, limiter.Admit(visitor, "review_create").Allowed)
	})

	t.Run("RejectionIsNotRecorded", func(t *testing.T) {
		limiter, clock := newTestLimiter()

		require.True(t, limiter.Admit(visitor, "review_create").Allowed)
		require.True(t, limiter.Admit(visitor, "review_create").Allowed)

		for i := 0; i < 10; i++ {
			clock.Advance(time.Minute)
			require.False(t, limiter.Admit(visitor, "review_create").Allowed)
		}

		clock.Advance(time.Hour)
		assert.True(t, limiter.Admit(visitor, "review_create").Allowed)
	})

	t.Run("ResetAtFollowsOldestTimestamp", func(t *testing.T) {
		limiter, clock := newTestLimiter()
		start := clock.Now()

		limiter.Admit(visitor, "admin_login")
		clock.Advance(time.Minute)
		decision := limiter.Admit(visitor, "admin_login")

		assert.Equal(t, start.Add(5*time.Minute), decision.ResetAt)
		assert.Equal(t, 4*time.Minute, decision.RetryAfter(clock.Now()))
	})

	t.Run("UnknownCategoryUsesDefault", func(t *testing.T) {
		limiter, _ := newTestLimiter()

		decision := limiter.Admit(visitor, "admin_dashboard")

		assert.True(t, decision.Allowed)
		assert.Equal(t, 100, decision.Limit)
		assert.Equal(t, time.Hour, decision.Window)
	})
}

func TestLimiter_Peek(t *testing.T) {
	limiter, clock := newTestLimiter()

	decision := limiter.Peek(visitor, "resume_download")
	assert.True(t, decision.Allowed)
	assert.Equal(t, 10, decision.Remaining)
	assert.Equal(t, clock.Now(), decision.ResetAt)

	limiter.Admit(visitor, "resume_download")
	limiter.Peek(visitor, "resume_download")

	assert.Equal(t, 9, limiter.Peek(visitor, "resume_download").Remaining)
}

func TestLimiter_IndependentKeys(t *testing.T) {
	limiter, _ := newTestLimiter()
	other := models.ClientIdentity{IP: "198.51.100.2", UserAgent: "go-test"}
	otherAgent := models.ClientIdentity{IP: visitor.IP, UserAgent: "curl/8.0"}

	for i := 0; i < 2; i++ {
		require.True(t, limiter.Admit(visitor, "review_create").Allowed)
	}
	require.False(t, limiter.Admit(visitor, "review_create").Allowed)

	assert.True(t, limiter.Admit(other, "review_create").Allowed)
	assert.True(t, limiter.Admit(otherAgent, "review_create").Allowed)
	assert.True(t, limiter.Admit(visitor, "newsletter_subscribe").Allowed)
}

func TestLimiter_ConcurrentAdmits(t *testing.T) {
	limiter, _ := newTestLimiter()

	var (
		wg       sync.WaitGroup
		admitted int64
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Admit(visitor, "contact_send_message").Allowed {
				atomic.AddInt64(&admitted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(5), admitted)
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key(visitor, "admin_login"), Key(visitor, "admin_login"))
	assert.NotEqual(t, Key(visitor, "admin_login"), Key(visitor, "admin_change_password"))
	assert.Len(t, Key(visitor, "admin_login"), 32)
}

func TestLimiter_PoliciesIsACopy(t *testing.T) {
	limiter, _ := newTestLimiter()

	policies := limiter.Policies()
	policies[DefaultCategory] = Policy{MaxRequests: 1, Window: time.Second}

	assert.Equal(t, 100, limiter.Policies()[DefaultCategory].MaxRequests)
}
