package utils

import (
	"testing"
	"time"

	"nepeats/internal/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseToken(t *testing.T) {
	config.GlobalConfig.JWT.Secret = "0123456789abcdef0123456789abcdef"

	t.Run("Round trip", func(t *testing.T) {
		token, err := GenerateToken("user-1", "customer", time.Hour)
		require.NoError(t, err)

		claims, err := ParseToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		assert.Equal(t, "customer", claims.Role)
	})

	t.Run("Expired token", func(t *testing.T) {
		token, err := GenerateToken("user-1", "customer", -time.Minute)
		require.NoError(t, err)

		_, err = ParseToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		claims := Claims{UserID: "user-1", Role: "admin"}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("another-secret-another-secret-xx"))
		require.NoError(t, err)

		_, err = ParseToken(token)
		assert.Error(t, err)
	})
}
