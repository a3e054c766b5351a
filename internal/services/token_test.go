package services_test

import (
	"testing"
	"time"

	"dating-api/internal/models"
	"dating-api/internal/services"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService(t *testing.T) {
	user := &models.User{ID: 7, Username: "alice", Roles: []string{models.RoleMember, models.RoleVIP}}

	t.Run("RoundTrip", func(t *testing.T) {
		svc := services.NewTokenService("secret", time.Hour)
		token, err := svc.Generate(user)
		require.NoError(t, err)

		caller, err := svc.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, models.Caller{ID: 7, Username: "alice", Roles: user.Roles}, caller)
	})

	t.Run("Expired", func(t *testing.T) {
		svc := services.NewTokenService("secret", -time.Minute)
		token, err := svc.Generate(user)
		require.NoError(t, err)
		_, err = svc.Parse(token)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		token, err := services.NewTokenService("secret", time.Hour).Generate(user)
		require.NoError(t, err)
		_, err = services.NewTokenService("other", time.Hour).Parse(token)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("NoneAlgorithm", func(t *testing.T) {
		claims := services.Claims{UserID: 7, RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = services.NewTokenService("secret", time.Hour).Parse(token)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := services.NewTokenService("secret", time.Hour).Parse("not-a-token")
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})
}
