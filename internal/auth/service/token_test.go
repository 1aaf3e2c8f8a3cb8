package service

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenGenerator(t *testing.T) {
	tests := []struct {
		name           string
		secret         string
		accessExpiry   time.Duration
		refreshExpiry  time.Duration
		expectedSecret string
	}{
		{
			name:           "standard initialization",
			secret:         "test-secret-key",
			accessExpiry:   1 * time.Hour,
			refreshExpiry:  7 * 24 * time.Hour,
			expectedSecret: "test-secret-key",
		},
		{
			name:           "short expiry times",
			secret:         "short-secret",
			accessExpiry:   1 * time.Minute,
			refreshExpiry:  10 * time.Minute,
			expectedSecret: "short-secret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tg := NewTokenGenerator(tt.secret, tt.accessExpiry, tt.refreshExpiry)

			assert.NotNil(t, tg)
			assert.Equal(t, tt.expectedSecret, tg.secret)
			assert.Equal(t, tt.accessExpiry, tg.accessTokenExpiry)
			assert.Equal(t, tt.refreshExpiry, tg.refreshTokenExpiry)
		})
	}
}

func TestTokenGenerator_GenerateTokens(t *testing.T) {
	secret := "b8a3c2267dc85f855dea9b46b452bf20"
	tg := NewTokenGenerator(secret, 1*time.Hour, 7*24*time.Hour)

	t.Run("success", func(t *testing.T) {
		userID := "8f8e8d8c-1234-4abc-9def-000000000001"
		accessToken, refreshToken, err := tg.GenerateTokens(userID)
		require.NoError(t, err)
		assert.NotEmpty(t, accessToken)
		assert.NotEmpty(t, refreshToken)
		assert.NotEqual(t, accessToken, refreshToken)
	})

	t.Run("token format validation", func(t *testing.T) {
		accessToken, refreshToken, err := tg.GenerateTokens("user-789")
		require.NoError(t, err)

		// JWT tokens should have 3 parts separated by dots
		accessParts := strings.Split(accessToken, ".")
		assert.Len(t, accessParts, 3)

		refreshParts := strings.Split(refreshToken, ".")
		assert.Len(t, refreshParts, 3)
	})

	t.Run("refresh tokens are unique within the same second", func(t *testing.T) {
		// iat has one-second resolution, so uniqueness must come from jti
		_, refresh1, err := tg.GenerateTokens("user-123")
		require.NoError(t, err)
		_, refresh2, err := tg.GenerateTokens("user-123")
		require.NoError(t, err)
		_, refresh3, err := tg.GenerateTokens("user-456")
		require.NoError(t, err)

		assert.NotEqual(t, refresh1, refresh2)
		assert.NotEqual(t, refresh1, refresh3)
		assert.NotEqual(t, refresh2, refresh3)
	})

	t.Run("access token round-trips the user ID", func(t *testing.T) {
		userID := "user-456"
		accessToken, _, err := tg.GenerateTokens(userID)
		require.NoError(t, err)

		validatedUserID, err := tg.ValidateAccessToken(accessToken)
		require.NoError(t, err)
		assert.Equal(t, userID, validatedUserID)
	})
}

func TestTokenGenerator_ValidateAccessToken(t *testing.T) {
	secret := "b8a3c2267dc85f855dea9b46b452bf20"
	tg := NewTokenGenerator(secret, 1*time.Hour, 7*24*time.Hour)

	t.Run("valid token", func(t *testing.T) {
		userID := "user-456"
		accessToken, _, err := tg.GenerateTokens(userID)
		require.NoError(t, err)

		validatedUserID, err := tg.ValidateAccessToken(accessToken)
		require.NoError(t, err)
		assert.Equal(t, userID, validatedUserID)
	})

	t.Run("empty string token", func(t *testing.T) {
		_, err := tg.ValidateAccessToken("")
		assert.Error(t, err)
	})

	t.Run("invalid token format", func(t *testing.T) {
		_, err := tg.ValidateAccessToken("invalid-token")
		assert.Error(t, err)
	})

	t.Run("malformed JWT - missing parts", func(t *testing.T) {
		_, err := tg.ValidateAccessToken("header.payload")
		assert.Error(t, err)
	})

	t.Run("wrong signature method - non-HMAC", func(t *testing.T) {
		claims := jwt.MapClaims{
			"user_id": "user-123",
			"exp":     time.Now().Add(1 * time.Hour).Unix(),
			"iat":     time.Now().Unix(),
			"type":    "access",
		}
		token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
		tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = tg.ValidateAccessToken(tokenString)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected signing method")
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenGenerator("different-secret", 1*time.Hour, 7*24*time.Hour)
		accessToken, _, err := other.GenerateTokens("user-123")
		require.NoError(t, err)

		_, err = tg.ValidateAccessToken(accessToken)
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := NewTokenGenerator(secret, -1*time.Hour, 7*24*time.Hour)
		accessToken, _, err := expired.GenerateTokens("user-123")
		require.NoError(t, err)

		_, err = tg.ValidateAccessToken(accessToken)
		assert.Error(t, err)
	})

	t.Run("token without user_id claim", func(t *testing.T) {
		claims := jwt.MapClaims{
			"exp":  time.Now().Add(1 * time.Hour).Unix(),
			"iat":  time.Now().Unix(),
			"type": "access",
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tokenString, err := token.SignedString([]byte(secret))
		require.NoError(t, err)

		_, err = tg.ValidateAccessToken(tokenString)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "user_id not found")
	})

	t.Run("token without type claim", func(t *testing.T) {
		claims := jwt.MapClaims{
			"user_id": "user-123",
			"exp":     time.Now().Add(1 * time.Hour).Unix(),
			"iat":     time.Now().Unix(),
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tokenString, err := token.SignedString([]byte(secret))
		require.NoError(t, err)

		_, err = tg.ValidateAccessToken(tokenString)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not an access token")
	})

	t.Run("refresh token rejected as access token", func(t *testing.T) {
		_, refreshToken, err := tg.GenerateTokens("user-123")
		require.NoError(t, err)

		_, err = tg.ValidateAccessToken(refreshToken)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not an access token")
	})
}

func TestTokenGenerator_ValidateRefreshToken(t *testing.T) {
	secret := "b8a3c2267dc85f855dea9b46b452bf20"
	tg := NewTokenGenerator(secret, 1*time.Hour, 7*24*time.Hour)

	t.Run("valid token", func(t *testing.T) {
		_, refreshToken, err := tg.GenerateTokens("user-456")
		require.NoError(t, err)

		assert.NoError(t, tg.ValidateRefreshToken(refreshToken))
	})

	t.Run("empty string token", func(t *testing.T) {
		assert.Error(t, tg.ValidateRefreshToken(""))
	})

	t.Run("access token rejected as refresh token", func(t *testing.T) {
		accessToken, _, err := tg.GenerateTokens("user-456")
		require.NoError(t, err)

		err = tg.ValidateRefreshToken(accessToken)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not a refresh token")
	})

	t.Run("expired token", func(t *testing.T) {
		expired := NewTokenGenerator(secret, 1*time.Hour, -1*time.Hour)
		_, refreshToken, err := expired.GenerateTokens("user-456")
		require.NoError(t, err)

		assert.Error(t, tg.ValidateRefreshToken(refreshToken))
	})
}
