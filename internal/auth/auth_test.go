package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.NoError(t, CheckPassword(hash, "s3cret"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), ErrInvalidCredentials)
}

func TestTokensIssueAndParse(t *testing.T) {
	tokens, err := NewTokens("secret", 30*time.Minute)
	require.NoError(t, err)

	raw, err := tokens.Issue(42)
	require.NoError(t, err)

	id, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestTokensRejectExpiredAndForeign(t *testing.T) {
	tokens, err := NewTokens("secret", time.Minute)
	require.NoError(t, err)
	raw, err := tokens.Issue(7)
	require.NoError(t, err)

	tokens.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = tokens.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewTokens("other", time.Minute)
	require.NoError(t, err)
	_, err = other.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = other.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokensRequiresSecret(t *testing.T) {
	_, err := NewTokens("", time.Minute)
	assert.ErrorIs(t, err, ErrNoSecret)
}
