package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/condominio/backend/internal/infrastructure/auth"
	"github.com/condominio/backend/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "condominio-backend",
		MaxRefreshCount:        10,
	})
}

func newTestTokenPair(jwtService *auth.JWTService) (*auth.TokenPair, auth.GenerateTokenInput) {
	input := auth.GenerateTokenInput{
		BuildingID: uuid.New(),
		UserID:     uuid.New(),
		Username:   "admin-lobby",
		Role:       auth.RoleAdmin,
	}
	pair, _ := jwtService.GenerateTokenPair(input)
	return pair, input
}

// serveAuthed runs one GET /test through the given auth middleware with an
// optional Authorization header and hands the captured claims back.
func serveAuthed(t *testing.T, mw gin.HandlerFunc, authHeader string) (int, *auth.Claims) {
	t.Helper()

	var captured *auth.Claims
	router := gin.New()
	router.Use(mw)
	router.GET("/test", func(c *gin.Context) {
		captured = GetJWTClaims(c)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec.Code, captured
}

func TestJWTAuthMiddleware(t *testing.T) {
	jwtService := newTestJWTService()
	pair, input := newTestTokenPair(jwtService)

	t.Run("valid token passes and exposes claims", func(t *testing.T) {
		code, claims := serveAuthed(t, JWTAuthMiddleware(jwtService), "Bearer "+pair.AccessToken)
		assert.Equal(t, http.StatusOK, code)
		require.NotNil(t, claims)
		assert.Equal(t, input.UserID.String(), claims.UserID)
		assert.Equal(t, input.BuildingID.String(), claims.BuildingID)
	})

	rejected := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "InvalidFormat token123"},
		{"empty bearer token", "Bearer "},
		{"garbage token", "Bearer invalid-token"},
		// A refresh token must never open an API session.
		{"refresh token used as access", "Bearer " + pair.RefreshToken},
	}
	for _, tt := range rejected {
		t.Run(tt.name+" is rejected", func(t *testing.T) {
			code, _ := serveAuthed(t, JWTAuthMiddleware(jwtService), tt.header)
			assert.Equal(t, http.StatusUnauthorized, code)
		})
	}

	t.Run("expired token is rejected", func(t *testing.T) {
		expiredSvc := auth.NewJWTService(config.JWTConfig{
			Secret:                 "test-secret-key-at-least-32-chars",
			AccessTokenExpiration:  -1 * time.Hour,
			RefreshTokenExpiration: 7 * 24 * time.Hour,
			Issuer:                 "condominio-backend",
		})
		expiredPair, _ := newTestTokenPair(expiredSvc)
		code, _ := serveAuthed(t, JWTAuthMiddleware(expiredSvc), "Bearer "+expiredPair.AccessToken)
		assert.Equal(t, http.StatusUnauthorized, code)
	})
}

func TestJWTAuthMiddleware_RevokedToken(t *testing.T) {
	jwtService := newTestJWTService()
	pair, _ := newTestTokenPair(jwtService)

	claims, err := jwtService.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	blacklist := auth.NewInMemoryTokenBlacklist()
	require.NoError(t, blacklist.AddToBlacklist(t.Context(), claims.ID, time.Hour))

	cfg := DefaultJWTConfig(jwtService)
	cfg.TokenBlacklist = blacklist

	code, _ := serveAuthed(t, JWTAuthMiddlewareWithConfig(cfg), "Bearer "+pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestJWTAuthMiddleware_SkipLists(t *testing.T) {
	jwtService := newTestJWTService()

	t.Run("extra skip path", func(t *testing.T) {
		cfg := DefaultJWTConfig(jwtService)
		cfg.SkipPaths = append(cfg.SkipPaths, "/public")

		router := gin.New()
		router.Use(JWTAuthMiddlewareWithConfig(cfg))
		router.GET("/public", func(c *gin.Context) { c.Status(http.StatusOK) })

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/public", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("skip path prefix", func(t *testing.T) {
		cfg := DefaultJWTConfig(jwtService)
		cfg.SkipPathPrefixes = append(cfg.SkipPathPrefixes, "/static")

		router := gin.New()
		router.Use(JWTAuthMiddlewareWithConfig(cfg))
		router.GET("/static/assets/image.png", func(c *gin.Context) { c.Status(http.StatusOK) })

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/assets/image.png", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("default skip paths stay open", func(t *testing.T) {
		router := gin.New()
		router.Use(JWTAuthMiddleware(jwtService))

		openPaths := []string{
			"/health",
			"/healthz",
			"/ready",
			"/api/v1/health",
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
		}
		for _, path := range openPaths {
			router.GET(path, func(c *gin.Context) { c.Status(http.StatusOK) })
		}
		for _, path := range openPaths {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, rec.Code, "path %s should not need a token", path)
		}
	})
}

func TestJWTAuthMiddleware_ContextValues(t *testing.T) {
	jwtService := newTestJWTService()
	pair, input := newTestTokenPair(jwtService)

	var gotUserID, gotBuildingID, gotUsername, gotRole string

	router := gin.New()
	router.Use(JWTAuthMiddleware(jwtService))
	router.GET("/test", func(c *gin.Context) {
		gotUserID = GetJWTUserID(c)
		gotBuildingID = GetJWTBuildingID(c)
		gotUsername = GetJWTUsername(c)
		gotRole = GetJWTRole(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, input.UserID.String(), gotUserID)
	assert.Equal(t, input.BuildingID.String(), gotBuildingID)
	assert.Equal(t, input.Username, gotUsername)
	assert.Equal(t, input.Role, gotRole)
}

func TestJWTAccessorsWithoutClaims(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, GetJWTClaims(c))
	assert.Empty(t, GetJWTUserID(c))
	assert.Empty(t, GetJWTBuildingID(c))
	assert.Empty(t, GetJWTUsername(c))
	assert.Empty(t, GetJWTRole(c))
	assert.Panics(t, func() { MustGetJWTClaims(c) })
}

func TestOptionalJWTAuthMiddleware(t *testing.T) {
	jwtService := newTestJWTService()
	pair, input := newTestTokenPair(jwtService)

	t.Run("no token still serves, without claims", func(t *testing.T) {
		code, claims := serveAuthed(t, OptionalJWTAuthMiddleware(jwtService), "")
		assert.Equal(t, http.StatusOK, code)
		assert.Nil(t, claims)
	})

	t.Run("valid token attaches claims", func(t *testing.T) {
		code, claims := serveAuthed(t, OptionalJWTAuthMiddleware(jwtService), "Bearer "+pair.AccessToken)
		assert.Equal(t, http.StatusOK, code)
		require.NotNil(t, claims)
		assert.Equal(t, input.UserID.String(), claims.UserID)
	})

	t.Run("invalid token serves without claims", func(t *testing.T) {
		code, claims := serveAuthed(t, OptionalJWTAuthMiddleware(jwtService), "Bearer invalid-token")
		assert.Equal(t, http.StatusOK, code)
		assert.Nil(t, claims)
	})
}

func TestJWTAuthMiddleware_CustomOnError(t *testing.T) {
	jwtService := newTestJWTService()

	called := false
	cfg := DefaultJWTConfig(jwtService)
	cfg.OnError = func(c *gin.Context, err error) {
		called = true
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"custom": "error"})
	}

	code, _ := serveAuthed(t, JWTAuthMiddlewareWithConfig(cfg), "")
	assert.True(t, called)
	assert.Equal(t, http.StatusForbidden, code)
}
