package middleware

import (
	"net/http"
	"strings"

	"github.com/condominio/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BuildingContextKey is the key used to store building information in gin.Context
const (
	BuildingIDKey     = "building_id"
	BuildingCodeKey   = "building_code"
	BuildingHeaderKey = "X-Building-ID"
)

// BuildingInfo holds the extracted building information
type BuildingInfo struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"code"`
}

// BuildingExtractor defines the interface for extracting building information
type BuildingExtractor interface {
	ExtractBuildingID(c *gin.Context) (string, error)
}

// BuildingValidator defines the interface for validating building
type BuildingValidator interface {
	ValidateBuilding(buildingID string) (*BuildingInfo, error)
}

// BuildingMiddlewareConfig holds configuration for building middleware
type BuildingMiddlewareConfig struct {
	// HeaderEnabled enables X-Building-ID header extraction
	HeaderEnabled bool
	// JWTEnabled enables JWT claim extraction (requires JWT middleware to run first)
	JWTEnabled bool
	// SubdomainEnabled enables subdomain extraction
	SubdomainEnabled bool
	// BaseDomain is the base domain for subdomain extraction (e.g., "condominio.app")
	BaseDomain string
	// SkipPaths are paths that don't require building context (e.g., health check)
	SkipPaths []string
	// Required determines if building context is mandatory
	Required bool
	// Validator is an optional validator to check if building exists and is active
	Validator BuildingValidator
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultBuildingConfig returns default building middleware configuration
func DefaultBuildingConfig() BuildingMiddlewareConfig {
	return BuildingMiddlewareConfig{
		HeaderEnabled:    true,
		JWTEnabled:       true,
		SubdomainEnabled: false,
		BaseDomain:       "",
		SkipPaths:        []string{"/health", "/healthz", "/ready", "/metrics", "/api/v1/health"},
		Required:         true,
		Validator:        nil,
		Logger:           nil,
	}
}

// BuildingMiddleware extracts building information from the request
// Extraction order: JWT claims > X-Building-ID header > subdomain
func BuildingMiddleware() gin.HandlerFunc {
	return BuildingMiddlewareWithConfig(DefaultBuildingConfig())
}

// BuildingMiddlewareWithConfig returns building middleware with custom configuration
func BuildingMiddlewareWithConfig(cfg BuildingMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check if path should be skipped
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath || strings.HasPrefix(path, skipPath+"/") {
				c.Next()
				return
			}
		}

		var buildingID string
		var extractionMethod string

		// Priority 1: JWT claims (if JWT middleware has already run)
		if cfg.JWTEnabled {
			if jwtBuildingID, exists := c.Get("jwt_building_id"); exists {
				if tid, ok := jwtBuildingID.(string); ok && tid != "" {
					buildingID = tid
					extractionMethod = "jwt"
				}
			}
		}

		// Priority 2: X-Building-ID header
		if buildingID == "" && cfg.HeaderEnabled {
			if headerBuildingID := c.GetHeader(BuildingHeaderKey); headerBuildingID != "" {
				buildingID = headerBuildingID
				extractionMethod = "header"
			}
		}

		// Priority 3: Subdomain extraction
		if buildingID == "" && cfg.SubdomainEnabled && cfg.BaseDomain != "" {
			if subdomainBuildingID := extractBuildingFromSubdomain(c.Request.Host, cfg.BaseDomain); subdomainBuildingID != "" {
				buildingID = subdomainBuildingID
				extractionMethod = "subdomain"
			}
		}

		// Validate building ID format if present
		if buildingID != "" {
			if err := validateBuildingIDFormat(buildingID); err != nil {
				respondUnauthorized(c, "Invalid building ID format")
				return
			}
		}

		// Check if building is required
		if buildingID == "" && cfg.Required {
			respondUnauthorized(c, "Building identification required")
			return
		}

		// Optional: Validate building exists and is active
		var buildingInfo *BuildingInfo
		if buildingID != "" && cfg.Validator != nil {
			var err error
			buildingInfo, err = cfg.Validator.ValidateBuilding(buildingID)
			if err != nil {
				log := cfg.Logger
				if log == nil {
					log = logger.FromContext(c.Request.Context())
				}
				log.Warn("Building validation failed",
					zap.String("building_id", buildingID),
					zap.Error(err),
				)
				respondUnauthorized(c, "Invalid or inactive building")
				return
			}
		}

		// Set building information in context
		if buildingID != "" {
			// Set in gin context for easy access in handlers
			c.Set(BuildingIDKey, buildingID)
			if buildingInfo != nil {
				c.Set(BuildingCodeKey, buildingInfo.Code)
			}

			// Set in request context for service layer access
			ctx := c.Request.Context()
			log := logger.FromContext(ctx)
			ctx, _ = logger.WithBuildingID(ctx, log, buildingID)
			c.Request = c.Request.WithContext(ctx)

			// Log extraction method for debugging
			if cfg.Logger != nil {
				cfg.Logger.Debug("Building identified",
					zap.String("building_id", buildingID),
					zap.String("method", extractionMethod),
				)
			}
		}

		c.Next()
	}
}

// extractBuildingFromSubdomain extracts building code from subdomain
// e.g., "parque.condominio.app" with baseDomain "condominio.app" returns "parque"
func extractBuildingFromSubdomain(host, baseDomain string) string {
	// Remove port if present
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}

	// Check if host ends with base domain
	if !strings.HasSuffix(host, baseDomain) {
		return ""
	}

	// Extract subdomain
	subdomain := strings.TrimSuffix(host, "."+baseDomain)
	if subdomain == host || subdomain == "" || subdomain == "www" {
		return ""
	}

	// Return the first part of subdomain (in case of multi-level subdomains)
	parts := strings.Split(subdomain, ".")
	return parts[0]
}

// validateBuildingIDFormat validates that the building ID is a valid UUID
func validateBuildingIDFormat(buildingID string) error {
	_, err := uuid.Parse(buildingID)
	return err
}

// respondUnauthorized sends an unauthorized response
func respondUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}

// GetBuildingID retrieves the building ID from gin.Context
func GetBuildingID(c *gin.Context) string {
	if buildingID, exists := c.Get(BuildingIDKey); exists {
		if tid, ok := buildingID.(string); ok {
			return tid
		}
	}
	return ""
}

// GetBuildingUUID retrieves the building ID as UUID from gin.Context
func GetBuildingUUID(c *gin.Context) (uuid.UUID, error) {
	buildingID := GetBuildingID(c)
	if buildingID == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(buildingID)
}

// GetBuildingCode retrieves the building code from gin.Context
func GetBuildingCode(c *gin.Context) string {
	if buildingCode, exists := c.Get(BuildingCodeKey); exists {
		if code, ok := buildingCode.(string); ok {
			return code
		}
	}
	return ""
}

// MustGetBuildingID retrieves the building ID from gin.Context or panics if not found
// Use this only in handlers where building is guaranteed to exist
func MustGetBuildingID(c *gin.Context) string {
	buildingID := GetBuildingID(c)
	if buildingID == "" {
		panic("building_id not found in context")
	}
	return buildingID
}

// MustGetBuildingUUID retrieves the building ID as UUID or panics if not found
func MustGetBuildingUUID(c *gin.Context) uuid.UUID {
	buildingUUID, err := GetBuildingUUID(c)
	if err != nil || buildingUUID == uuid.Nil {
		panic("valid building_id not found in context")
	}
	return buildingUUID
}

// OptionalBuildingMiddleware creates middleware that doesn't require building
func OptionalBuildingMiddleware() gin.HandlerFunc {
	cfg := DefaultBuildingConfig()
	cfg.Required = false
	return BuildingMiddlewareWithConfig(cfg)
}
