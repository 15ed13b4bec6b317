package middleware

import (
	"net/http"

	"github.com/condominio/backend/internal/infrastructure/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RoleConfig holds configuration for role middleware
type RoleConfig struct {
	// Logger for middleware logging
	Logger *zap.Logger
	// OnDenied is called when access is denied (optional)
	OnDenied func(c *gin.Context, requiredRoles []string)
}

// RequireAdmin creates middleware that only lets administrators through.
// Invoice issuance, payment review and unit management sit behind it.
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(auth.RoleAdmin)
}

// RequireRole creates middleware that requires any of the specified roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return RequireRoleWithConfig(RoleConfig{}, roles...)
}

// RequireRoleWithConfig creates middleware that requires any of the specified roles with custom config
func RequireRoleWithConfig(cfg RoleConfig, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			handleRoleDenied(c, cfg, roles, "No authentication claims found")
			return
		}

		allowed := false
		for _, role := range roles {
			if claims.Role == role {
				allowed = true
				break
			}
		}
		if !allowed {
			handleRoleDenied(c, cfg, roles, "User lacks required role")
			return
		}

		if cfg.Logger != nil {
			cfg.Logger.Debug("Role check passed",
				zap.String("user_id", claims.UserID),
				zap.Strings("required_any", roles),
				zap.String("user_role", claims.Role),
			)
		}

		c.Next()
	}
}

// handleRoleDenied handles role denial responses
func handleRoleDenied(c *gin.Context, cfg RoleConfig, roles []string, message string) {
	if cfg.OnDenied != nil {
		cfg.OnDenied(c, roles)
		return
	}

	if cfg.Logger != nil {
		cfg.Logger.Warn("Role check failed",
			zap.Strings("required_roles", roles),
			zap.String("message", message),
			zap.String("path", c.Request.URL.Path),
		)
	}

	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "FORBIDDEN",
			"message": "Insufficient permissions",
		},
	})
}
