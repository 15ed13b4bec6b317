package middleware

import (
	"net/http"
	"strings"

	"github.com/condominio/backend/internal/infrastructure/auth"
	"github.com/condominio/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey     = "jwt_claims"
	JWTUserIDKey     = "jwt_user_id"
	JWTBuildingIDKey = "jwt_building_id"
	JWTUsernameKey   = "jwt_username"
	JWTRoleKey       = "jwt_role"
	AuthHeaderKey    = "Authorization"
	BearerPrefix     = "Bearer "
)

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	// JWTService is required for token validation
	JWTService *auth.JWTService
	// TokenBlacklist, when set, rejects revoked tokens and invalidated sessions
	TokenBlacklist auth.TokenBlacklist
	// SkipPaths are exact paths served without authentication
	SkipPaths []string
	// SkipPathPrefixes are path prefixes served without authentication
	SkipPathPrefixes []string
	// OnError replaces the default 401 response
	OnError func(c *gin.Context, err error)
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultJWTConfig returns default JWT middleware configuration
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/health",
			"/healthz",
			"/ready",
			"/metrics",
			"/api/v1/health",
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
		},
		SkipPathPrefixes: []string{
			"/swagger",
			"/api-docs",
		},
	}
}

// JWTAuthMiddleware creates JWT authentication middleware
func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService))
}

// JWTAuthMiddlewareWithConfig creates JWT authentication middleware with custom config
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if pathSkipsAuth(cfg, c.Request.URL.Path) {
			c.Next()
			return
		}

		tokenString, errMsg := extractBearerToken(c)
		if errMsg != "" {
			handleAuthError(c, cfg, auth.ErrInvalidToken, errMsg)
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(tokenString)
		if err != nil {
			handleAuthError(c, cfg, err, "Token validation failed")
			return
		}

		if cfg.TokenBlacklist != nil && !passesBlacklist(c, cfg, claims) {
			return
		}

		setClaimsInContext(c, claims)

		// Propagate identity into the request context so downstream log
		// entries carry user and building ids.
		ctx := c.Request.Context()
		log := logger.FromContext(ctx)
		ctx, _ = logger.WithUserID(ctx, log, claims.UserID)
		ctx, _ = logger.WithBuildingID(ctx, log, claims.BuildingID)
		c.Request = c.Request.WithContext(ctx)

		if cfg.Logger != nil {
			cfg.Logger.Debug("JWT authentication successful",
				zap.String("user_id", claims.UserID),
				zap.String("building_id", claims.BuildingID),
				zap.String("username", claims.Username),
			)
		}

		c.Next()
	}
}

func pathSkipsAuth(cfg JWTMiddlewareConfig, path string) bool {
	for _, skipPath := range cfg.SkipPaths {
		if path == skipPath {
			return true
		}
	}
	for _, prefix := range cfg.SkipPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// extractBearerToken pulls the token out of the Authorization header,
// returning a non-empty message when the header is unusable.
func extractBearerToken(c *gin.Context) (token, errMsg string) {
	authHeader := c.GetHeader(AuthHeaderKey)
	if authHeader == "" {
		return "", "Missing authorization header"
	}
	if !strings.HasPrefix(authHeader, BearerPrefix) {
		return "", "Invalid authorization header format"
	}
	token = strings.TrimPrefix(authHeader, BearerPrefix)
	if token == "" {
		return "", "Missing token"
	}
	return token, ""
}

// passesBlacklist checks individual revocation (logout) and account-wide
// invalidation (forced logout, password change). Blacklist lookup failures
// fail open: an unavailable Redis must not lock every resident out.
func passesBlacklist(c *gin.Context, cfg JWTMiddlewareConfig, claims *auth.Claims) bool {
	ctx := c.Request.Context()

	if claims.ID != "" {
		blacklisted, err := cfg.TokenBlacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Error("Failed to check token blacklist",
					zap.String("jti", claims.ID),
					zap.Error(err))
			}
		} else if blacklisted {
			handleAuthError(c, cfg, auth.ErrTokenBlacklisted, "Token has been revoked")
			return false
		}
	}

	if claims.UserID != "" {
		invalidated, err := cfg.TokenBlacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Error("Failed to check user token invalidation",
					zap.String("user_id", claims.UserID),
					zap.Error(err))
			}
		} else if invalidated {
			handleAuthError(c, cfg, auth.ErrTokenBlacklisted, "User session has been invalidated")
			return false
		}
	}

	return true
}

func setClaimsInContext(c *gin.Context, claims *auth.Claims) {
	c.Set(JWTClaimsKey, claims)
	c.Set(JWTUserIDKey, claims.UserID)
	c.Set(JWTBuildingIDKey, claims.BuildingID)
	c.Set(JWTUsernameKey, claims.Username)
	c.Set(JWTRoleKey, claims.Role)
}

// handleAuthError responds 401 with a machine-readable code, or defers to the
// configured OnError callback.
func handleAuthError(c *gin.Context, cfg JWTMiddlewareConfig, err error, message string) {
	if cfg.OnError != nil {
		cfg.OnError(c, err)
		return
	}

	if cfg.Logger != nil {
		cfg.Logger.Warn("JWT authentication failed",
			zap.Error(err),
			zap.String("message", message),
			zap.String("path", c.Request.URL.Path),
		)
	}

	errorCode := "UNAUTHORIZED"
	errorMessage := "Authentication required"
	switch err {
	case auth.ErrExpiredToken:
		errorCode, errorMessage = "TOKEN_EXPIRED", "Token has expired"
	case auth.ErrInvalidToken:
		errorCode, errorMessage = "INVALID_TOKEN", "Invalid token"
	case auth.ErrInvalidTokenType:
		errorCode, errorMessage = "INVALID_TOKEN_TYPE", "Invalid token type"
	case auth.ErrTokenNotYetValid:
		errorCode, errorMessage = "TOKEN_NOT_VALID", "Token is not yet valid"
	case auth.ErrTokenBlacklisted:
		errorCode, errorMessage = "TOKEN_REVOKED", "Token has been revoked"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    errorCode,
			"message": errorMessage,
		},
	})
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// MustGetJWTClaims retrieves JWT claims from gin.Context or panics if not found
func MustGetJWTClaims(c *gin.Context) *auth.Claims {
	claims := GetJWTClaims(c)
	if claims == nil {
		panic("jwt claims not found in context")
	}
	return claims
}

func contextString(c *gin.Context, key string) string {
	if value, exists := c.Get(key); exists {
		if s, ok := value.(string); ok {
			return s
		}
	}
	return ""
}

// GetJWTUserID retrieves the user ID from JWT claims in context
func GetJWTUserID(c *gin.Context) string { return contextString(c, JWTUserIDKey) }

// GetJWTBuildingID retrieves the building ID from JWT claims in context
func GetJWTBuildingID(c *gin.Context) string { return contextString(c, JWTBuildingIDKey) }

// GetJWTUsername retrieves the username from JWT claims in context
func GetJWTUsername(c *gin.Context) string { return contextString(c, JWTUsernameKey) }

// GetJWTRole retrieves the role from JWT claims in context
func GetJWTRole(c *gin.Context) string { return contextString(c, JWTRoleKey) }

// OptionalJWTAuthMiddleware extracts claims when a valid token is present but
// never rejects the request.
func OptionalJWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, errMsg := extractBearerToken(c)
		if errMsg != "" {
			c.Next()
			return
		}
		if claims, err := jwtService.ValidateAccessToken(tokenString); err == nil {
			setClaimsInContext(c, claims)
		}
		c.Next()
	}
}
