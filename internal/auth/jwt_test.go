package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTAuthenticator_RoundTrip(t *testing.T) {
	a := NewJWTAuthenticator("test-secret", "curate", "curate", time.Hour)

	token, err := a.GenerateToken("admin-1")
	require.NoError(t, err)

	parsed, err := a.ValidateToken(token)
	require.NoError(t, err)
	assert.True(t, parsed.Valid)

	sub, err := Subject(parsed)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", sub)
}

func TestJWTAuthenticator_Rejects(t *testing.T) {
	a := NewJWTAuthenticator("test-secret", "curate", "curate", time.Hour)

	t.Run("expired", func(t *testing.T) {
		expired := NewJWTAuthenticator("test-secret", "curate", "curate", -time.Minute)
		token, err := expired.GenerateToken("admin-1")
		require.NoError(t, err)
		_, err = a.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTAuthenticator("other-secret", "curate", "curate", time.Hour)
		token, err := other.GenerateToken("admin-1")
		require.NoError(t, err)
		_, err = a.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
	})

	t.Run("wrong audience", func(t *testing.T) {
		other := NewJWTAuthenticator("test-secret", "elsewhere", "curate", time.Hour)
		token, err := other.GenerateToken("admin-1")
		require.NoError(t, err)
		_, err = a.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenInvalidAudience)
	})

	t.Run("no expiry", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "admin-1", "iss": "curate", "aud": "curate",
		}).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = a.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenRequiredClaimMissing)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := a.ValidateToken("not-a-token")
		assert.Error(t, err)
	})
}
