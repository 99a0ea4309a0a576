package utils

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC))
	issuer := NewTokenIssuer("test-secret", time.Hour, clock)

	token, expiresAt, err := issuer.Issue("admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(time.Hour), expiresAt)

	t.Run("Valid", func(t *testing.T) {
		claims, err := issuer.Validate(token)
		require.NoError(t, err)

		assert.Equal(t, "admin@example.com", claims.Email)
		assert.Equal(t, RoleAdmin, claims.Role)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		_, err := NewTokenIssuer("other-secret", time.Hour, clock).Validate(token)
		assert.Error(t, err)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := issuer.Validate("not-a-token")
		assert.Error(t, err)
	})

	t.Run("Expired", func(t *testing.T) {
		clock.Advance(2 * time.Hour)

		_, err := issuer.Validate(token)
		assert.Error(t, err)
	})
}
