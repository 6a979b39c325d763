package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	token, err := tm.Issue(42, "alice@example.com")
	require.NoError(t, err)

	userID, err := tm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), userID)
}

func TestTokenWrongSecretRejected(t *testing.T) {
	token, err := NewTokenManager("secret-a", time.Hour).Issue(1, "a@example.com")
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", time.Hour).Validate(token)
	assert.Error(t, err)
}

func TestTokenExpiredRejected(t *testing.T) {
	tm := NewTokenManager("test-secret", -time.Minute)

	token, err := tm.Issue(1, "a@example.com")
	require.NoError(t, err)

	_, err = tm.Validate(token)
	assert.Error(t, err)
}

func TestTokenGarbageRejected(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	for _, s := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := tm.Validate(s)
		assert.Error(t, err)
	}
}
