// Package middleware provides HTTP middleware for the condominium billing system.
package middleware

import (
	"context"
	"strings"

	"github.com/condominio/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// ProfilingConfig controls which requests get Pyroscope labels.
type ProfilingConfig struct {
	Enabled bool
	// SkipPaths are exact paths excluded from labeling (health checks etc).
	SkipPaths []string
	// SkipPathPrefixes excludes whole subtrees such as the swagger UI.
	SkipPathPrefixes []string
}

// DefaultProfilingConfig labels everything except health and docs endpoints.
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled: true,
		SkipPaths: []string{
			"/health",
			"/healthz",
			"/ready",
			"/metrics",
		},
		SkipPathPrefixes: []string{
			"/swagger",
			"/api-docs",
		},
	}
}

// Profiling returns the labeling middleware with default configuration.
func Profiling() gin.HandlerFunc {
	return ProfilingWithConfig(DefaultProfilingConfig())
}

// ProfilingWithConfig wraps handler execution in a Pyroscope tag scope so CPU
// samples can be filtered by controller, route, method and building_id in the
// Pyroscope UI. Labels come from the matched route pattern, not the raw path,
// to keep cardinality bounded.
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		if pathSkipsProfiling(cfg, c.Request.URL.Path) {
			c.Next()
			return
		}

		labels := requestProfilingLabels(c)
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

func pathSkipsProfiling(cfg ProfilingConfig, path string) bool {
	for _, skip := range cfg.SkipPaths {
		if path == skip {
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

func requestProfilingLabels(c *gin.Context) map[string]string {
	labels := make(map[string]string, 4)

	if method := c.Request.Method; method != "" {
		labels[telemetry.ProfilingLabelMethod] = method
	}

	route := c.FullPath()
	if route != "" {
		labels[telemetry.ProfilingLabelRoute] = route
	}
	if controller := controllerFromRoute(route); controller != "" {
		labels[telemetry.ProfilingLabelController] = controller
	}
	if buildingID := profiledBuildingID(c); buildingID != "" {
		labels[telemetry.ProfilingLabelBuildingID] = buildingID
	}

	return labels
}

// controllerFromRoute picks the resource segment out of a route pattern:
// "/api/v1/billing/invoices/:id" yields "billing".
func controllerFromRoute(route string) string {
	if route == "" {
		return ""
	}

	for _, part := range strings.Split(route, "/") {
		switch {
		case part == "" || part == "api" || isVersionSegment(part):
			continue
		case strings.HasPrefix(part, ":") || strings.HasPrefix(part, "{"):
			continue
		default:
			return part
		}
	}
	return ""
}

// isVersionSegment matches version segments like v1, v2, V10.
func isVersionSegment(segment string) bool {
	if len(segment) < 2 || (segment[0] != 'v' && segment[0] != 'V') {
		return false
	}
	for i := 1; i < len(segment); i++ {
		if segment[i] < '0' || segment[i] > '9' {
			return false
		}
	}
	return true
}

// profiledBuildingID reads the building from either the JWT claims or the
// building-resolution middleware, whichever ran upstream.
func profiledBuildingID(c *gin.Context) string {
	for _, key := range []string{JWTBuildingIDKey, BuildingIDKey} {
		if value, exists := c.Get(key); exists {
			if id, ok := value.(string); ok && id != "" {
				return id
			}
		}
	}
	return ""
}

// ProfilingAttributeInjector is the labeling middleware positioned after the
// JWT and building middleware, so the building label is populated.
func ProfilingAttributeInjector() gin.HandlerFunc {
	return ProfilingWithConfig(DefaultProfilingConfig())
}
