package services

import (
	"testing"
	"time"

	"github.com/artcatalog/backend/internal/config"
	"github.com/artcatalog/backend/pkg/crypto"
	jwtpkg "github.com/artcatalog/backend/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	hash, err := crypto.HashPassword("s3cret-pass", bcrypt.MinCost)
	require.NoError(t, err)
	return NewAuthService(&config.Config{
		APIUsername:      "curator",
		APIPasswordHash:  hash,
		JWTSecret:        "test-secret",
		JWTTokenDuration: 30 * time.Minute,
		BcryptCost:       bcrypt.MinCost,
	})
}

func TestAuthService_Login(t *testing.T) {
	svc := newTestAuthService(t)

	token, err := svc.Login("curator", "s3cret-pass")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := jwtpkg.ValidateToken(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "curator", claims.Username)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), claims.ExpiresAt.Time, 5*time.Second)

	failures := map[string][2]string{
		"wrong password": {"curator", "guess"},
		"wrong username": {"visitor", "s3cret-pass"},
		"empty username": {"", "s3cret-pass"},
		"empty password": {"curator", ""},
	}
	for name, creds := range failures {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Login(creds[0], creds[1])
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestAuthService_Login_Unconfigured(t *testing.T) {
	svc := NewAuthService(&config.Config{JWTSecret: "test-secret", JWTTokenDuration: time.Minute})

	_, err := svc.Login("", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login("anyone", "anything")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Authenticate(t *testing.T) {
	svc := newTestAuthService(t)
	token, err := svc.Login("curator", "s3cret-pass")
	require.NoError(t, err)

	t.Run("bearer header", func(t *testing.T) {
		result := svc.Authenticate("Bearer " + token)
		assert.True(t, result.Valid)
		assert.Equal(t, "curator", result.Claims.Username)
	})

	t.Run("raw token", func(t *testing.T) {
		assert.True(t, svc.Authenticate(token).Valid)
	})

	t.Run("lowercase scheme", func(t *testing.T) {
		assert.True(t, svc.Authenticate("bearer "+token).Valid)
	})

	rejected := map[string]string{
		"empty":       "",
		"scheme only": "Bearer ",
		"garbage":     "Bearer not-a-jwt",
		"tampered":    "Bearer " + token + "x",
	}
	for name, header := range rejected {
		t.Run(name, func(t *testing.T) {
			result := svc.Authenticate(header)
			assert.False(t, result.Valid)
			assert.Nil(t, result.Claims)
		})
	}

	t.Run("expired", func(t *testing.T) {
		expired, err := jwtpkg.GenerateToken("curator", "test-secret", -time.Minute)
		require.NoError(t, err)
		assert.False(t, svc.Authenticate("Bearer "+expired).Valid)
	})

	t.Run("other secret", func(t *testing.T) {
		forged, err := jwtpkg.GenerateToken("curator", "other-secret", time.Minute)
		require.NoError(t, err)
		assert.False(t, svc.Authenticate(forged).Valid)
	})
}

func TestAuthService_HashPassword(t *testing.T) {
	svc := newTestAuthService(t)

	hash, err := svc.HashPassword("hunter2", 0)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
	assert.True(t, crypto.CheckPassword("hunter2", hash))

	hash, err = svc.HashPassword("hunter2", 5)
	require.NoError(t, err)
	cost, _ = bcrypt.Cost([]byte(hash))
	assert.Equal(t, 5, cost)

	var validationErr *ValidationError
	_, err = svc.HashPassword("", 10)
	assert.ErrorAs(t, err, &validationErr)
	_, err = svc.HashPassword("hunter2", 3)
	assert.ErrorAs(t, err, &validationErr)
	_, err = svc.HashPassword("hunter2", 32)
	assert.ErrorAs(t, err, &validationErr)
}
