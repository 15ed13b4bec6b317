package auth

import (
	"testing"
	"time"

	"github.com/condominio/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jwtConfigForTest(overrides func(*config.JWTConfig)) config.JWTConfig {
	cfg := config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "condominio-backend",
		MaxRefreshCount:        10,
	}
	if overrides != nil {
		overrides(&cfg)
	}
	return cfg
}

func newTestJWTService() *JWTService {
	return NewJWTService(jwtConfigForTest(nil))
}

// sharedSecretService signs access and refresh tokens with one secret so a
// token of the wrong type parses and only the type check can reject it.
func sharedSecretService() *JWTService {
	return NewJWTService(jwtConfigForTest(func(c *config.JWTConfig) {
		c.RefreshSecret = c.Secret
	}))
}

func newTestInput() GenerateTokenInput {
	return GenerateTokenInput{
		BuildingID: uuid.New(),
		UserID:     uuid.New(),
		Username:   "admin-lobby",
		Role:       RoleAdmin,
	}
}

func mustPair(t *testing.T, svc *JWTService, input GenerateTokenInput) *TokenPair {
	t.Helper()
	pair, err := svc.GenerateTokenPair(input)
	require.NoError(t, err)
	return pair
}

func TestNewJWTService(t *testing.T) {
	cfg := jwtConfigForTest(func(c *config.JWTConfig) { c.MaxRefreshCount = 5 })
	svc := NewJWTService(cfg)

	assert.Equal(t, []byte(cfg.Secret), svc.accessSecret)
	assert.Equal(t, cfg.AccessTokenExpiration, svc.accessExpiration)
	assert.Equal(t, cfg.RefreshTokenExpiration, svc.refreshExpiration)
	assert.Equal(t, cfg.Issuer, svc.issuer)
	assert.Equal(t, cfg.MaxRefreshCount, svc.maxRefreshCount)

	t.Run("falls back to the access secret for refresh", func(t *testing.T) {
		svc := NewJWTService(jwtConfigForTest(func(c *config.JWTConfig) { c.RefreshSecret = "" }))
		assert.Equal(t, svc.accessSecret, svc.refreshSecret)
	})
}

func TestGenerateTokenPair(t *testing.T) {
	pair := mustPair(t, newTestJWTService(), newTestInput())

	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.True(t, pair.AccessTokenExpiresAt.After(time.Now()))
	assert.True(t, pair.RefreshTokenExpiresAt.After(pair.AccessTokenExpiresAt))
}

func TestValidateAccessToken(t *testing.T) {
	t.Run("round trips the claims", func(t *testing.T) {
		svc := newTestJWTService()
		input := newTestInput()
		pair := mustPair(t, svc, input)

		claims, err := svc.ValidateAccessToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, input.BuildingID.String(), claims.BuildingID)
		assert.Equal(t, input.UserID.String(), claims.UserID)
		assert.Equal(t, input.Username, claims.Username)
		assert.Equal(t, input.Role, claims.Role)
		assert.Equal(t, TokenTypeAccess, claims.TokenType)
	})

	t.Run("expired", func(t *testing.T) {
		svc := NewJWTService(jwtConfigForTest(func(c *config.JWTConfig) {
			c.AccessTokenExpiration = -1 * time.Hour
		}))
		pair := mustPair(t, svc, newTestInput())

		_, err := svc.ValidateAccessToken(pair.AccessToken)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := newTestJWTService().ValidateAccessToken("invalid-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("refresh token is the wrong type", func(t *testing.T) {
		svc := sharedSecretService()
		pair := mustPair(t, svc, newTestInput())

		_, err := svc.ValidateAccessToken(pair.RefreshToken)
		assert.ErrorIs(t, err, ErrInvalidTokenType)
	})

	t.Run("foreign secret", func(t *testing.T) {
		pair := mustPair(t, newTestJWTService(), newTestInput())
		other := NewJWTService(jwtConfigForTest(func(c *config.JWTConfig) {
			c.Secret = "different-secret-key-32-chars!"
		}))

		_, err := other.ValidateAccessToken(pair.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestValidateRefreshToken(t *testing.T) {
	t.Run("round trips the claims", func(t *testing.T) {
		svc := newTestJWTService()
		input := newTestInput()
		pair := mustPair(t, svc, input)

		claims, err := svc.ValidateRefreshToken(pair.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, input.BuildingID.String(), claims.BuildingID)
		assert.Equal(t, input.UserID.String(), claims.UserID)
		assert.Equal(t, TokenTypeRefresh, claims.TokenType)
		assert.Equal(t, 0, claims.RefreshCount)
	})

	t.Run("access token is the wrong type", func(t *testing.T) {
		svc := sharedSecretService()
		pair := mustPair(t, svc, newTestInput())

		_, err := svc.ValidateRefreshToken(pair.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidTokenType)
	})
}

func TestRefreshTokenPair(t *testing.T) {
	t.Run("issues a fresh pair with the updated role", func(t *testing.T) {
		svc := newTestJWTService()
		pair := mustPair(t, svc, newTestInput())

		newPair, err := svc.RefreshTokenPair(pair.RefreshToken, RoleResident)
		require.NoError(t, err)
		assert.NotEqual(t, pair.AccessToken, newPair.AccessToken)
		assert.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)

		claims, err := svc.ValidateAccessToken(newPair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, RoleResident, claims.Role)
	})

	t.Run("counts each refresh", func(t *testing.T) {
		svc := newTestJWTService()
		pair := mustPair(t, svc, newTestInput())

		for want := 1; want <= 2; want++ {
			var err error
			pair, err = svc.RefreshTokenPair(pair.RefreshToken, RoleAdmin)
			require.NoError(t, err)

			claims, err := svc.ValidateRefreshToken(pair.RefreshToken)
			require.NoError(t, err)
			assert.Equal(t, want, claims.RefreshCount)
		}
	})

	t.Run("stops at the refresh budget", func(t *testing.T) {
		svc := NewJWTService(jwtConfigForTest(func(c *config.JWTConfig) { c.MaxRefreshCount = 2 }))
		pair := mustPair(t, svc, newTestInput())

		var err error
		pair, err = svc.RefreshTokenPair(pair.RefreshToken, RoleAdmin)
		require.NoError(t, err)
		pair, err = svc.RefreshTokenPair(pair.RefreshToken, RoleAdmin)
		require.NoError(t, err)

		_, err = svc.RefreshTokenPair(pair.RefreshToken, RoleAdmin)
		assert.ErrorIs(t, err, ErrMaxRefreshExceeded)
	})

	t.Run("rejects a garbage token", func(t *testing.T) {
		_, err := newTestJWTService().RefreshTokenPair("invalid-token", RoleAdmin)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects an access token", func(t *testing.T) {
		svc := sharedSecretService()
		pair := mustPair(t, svc, newTestInput())

		_, err := svc.RefreshTokenPair(pair.AccessToken, RoleAdmin)
		assert.ErrorIs(t, err, ErrInvalidTokenType)
	})
}

func TestClaimsHelpers(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()
	pair := mustPair(t, svc, input)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	buildingUUID, err := claims.GetBuildingUUID()
	require.NoError(t, err)
	assert.Equal(t, input.BuildingID, buildingUUID)

	userUUID, err := claims.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, input.UserID, userUUID)

	assert.True(t, (&Claims{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&Claims{Role: RoleResident}).IsAdmin())
	assert.False(t, (&Claims{}).IsAdmin())
}
