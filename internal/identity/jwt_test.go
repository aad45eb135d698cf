package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "foodbridge/pkg/domain-errors"
)

const testSigningKey = "test-signing-key"

func mintToken(t *testing.T, userID string, expiresIn time.Duration, key string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
	signed, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func TestValidateToken(t *testing.T) {
	validator := NewJWTValidator(testSigningKey)

	t.Run("valid token yields user id", func(t *testing.T) {
		claims, err := validator.ValidateToken(mintToken(t, "user-1", time.Hour, testSigningKey))
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		_, err := validator.ValidateToken(mintToken(t, "user-1", -time.Minute, testSigningKey))
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong key rejected", func(t *testing.T) {
		_, err := validator.ValidateToken(mintToken(t, "user-1", time.Hour, "other-key"))
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := validator.ValidateToken("not-a-token")
		require.Error(t, err)
	})
}
