package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/condominio/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// serveProfiled runs one GET through the profiling middleware (plus any
// extra middleware) and reports whether the handler ran.
func serveProfiled(t *testing.T, cfg middleware.ProfilingConfig, path string, extra ...gin.HandlerFunc) bool {
	t.Helper()

	r := gin.New()
	for _, mw := range extra {
		r.Use(mw)
	}
	r.Use(middleware.ProfilingWithConfig(cfg))

	handlerCalled := false
	r.GET(path, func(c *gin.Context) {
		handlerCalled = true
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	return handlerCalled
}

func TestDefaultProfilingConfig(t *testing.T) {
	cfg := middleware.DefaultProfilingConfig()

	assert.True(t, cfg.Enabled)
	for _, path := range []string{"/health", "/healthz", "/ready", "/metrics"} {
		assert.Contains(t, cfg.SkipPaths, path)
	}
	assert.Contains(t, cfg.SkipPathPrefixes, "/swagger")
	assert.Contains(t, cfg.SkipPathPrefixes, "/api-docs")
}

func TestProfilingMiddleware(t *testing.T) {
	t.Run("disabled config passes requests through", func(t *testing.T) {
		called := serveProfiled(t, middleware.ProfilingConfig{Enabled: false}, "/api/v1/billing/invoices")
		assert.True(t, called)
	})

	t.Run("enabled config passes requests through", func(t *testing.T) {
		called := serveProfiled(t, middleware.DefaultProfilingConfig(), "/api/v1/billing/invoices")
		assert.True(t, called)
	})

	t.Run("skipped paths are still served", func(t *testing.T) {
		// Exact skips, prefix skips, and a non-exact /health subpath
		// that does NOT match the skip list.
		for _, path := range []string{
			"/health",
			"/metrics",
			"/swagger/index.html",
			"/api-docs/v1",
			"/health/check",
			"/api/v1/billing/invoices",
		} {
			assert.True(t, serveProfiled(t, middleware.DefaultProfilingConfig(), path), "path %s", path)
		}
	})

	t.Run("custom skip lists", func(t *testing.T) {
		cfg := middleware.ProfilingConfig{
			Enabled:          true,
			SkipPaths:        []string{"/custom/health", "/custom/status"},
			SkipPathPrefixes: []string{"/custom/admin"},
		}
		for _, path := range []string{"/custom/health", "/custom/status", "/custom/admin/dashboard", "/custom/api"} {
			assert.True(t, serveProfiled(t, cfg, path), "path %s", path)
		}
	})
}

func TestProfilingMiddleware_BuildingLabel(t *testing.T) {
	cfg := middleware.DefaultProfilingConfig()

	t.Run("from jwt claims", func(t *testing.T) {
		assert.True(t, serveProfiled(t, cfg, "/api/v1/billing/invoices", func(c *gin.Context) {
			c.Set(middleware.JWTBuildingIDKey, "building-123")
			c.Next()
		}))
	})

	t.Run("from building middleware fallback", func(t *testing.T) {
		assert.True(t, serveProfiled(t, cfg, "/api/v1/billing/invoices", func(c *gin.Context) {
			c.Set(middleware.BuildingIDKey, "building-456")
			c.Next()
		}))
	})

	t.Run("jwt wins over header", func(t *testing.T) {
		assert.True(t, serveProfiled(t, cfg, "/api/v1/billing/invoices", func(c *gin.Context) {
			c.Set(middleware.JWTBuildingIDKey, "jwt-building")
			c.Set(middleware.BuildingIDKey, "header-building")
			c.Next()
		}))
	})

	t.Run("missing or mistyped building id is tolerated", func(t *testing.T) {
		assert.True(t, serveProfiled(t, cfg, "/api/v1/billing/invoices"))
		assert.True(t, serveProfiled(t, cfg, "/api/v1/billing/invoices", func(c *gin.Context) {
			c.Set(middleware.JWTBuildingIDKey, 12345)
			c.Next()
		}))
	})
}

func TestProfilingMiddleware_ControllerExtraction(t *testing.T) {
	// Routes with params, nested actions, and varying version segments
	// all resolve to a controller label without breaking the request.
	routes := []struct {
		route string
		path  string
	}{
		{"/api/v1/invoices", "/api/v1/invoices"},
		{"/api/v1/invoices/:id", "/api/v1/invoices/123"},
		{"/api/v1/payments/:id/approve", "/api/v1/payments/123/approve"},
		{"/api/v2/units", "/api/v2/units"},
		{"/api/v10/units", "/api/v10/units"},
		{"/api/units", "/api/units"},
		{"/v1/units", "/v1/units"},
	}

	for _, tt := range routes {
		t.Run(tt.route, func(t *testing.T) {
			r := gin.New()
			r.Use(middleware.ProfilingWithConfig(middleware.DefaultProfilingConfig()))
			r.GET(tt.route, func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestProfilingMiddleware_Defaults(t *testing.T) {
	r := gin.New()
	r.Use(middleware.Profiling())
	r.Use(middleware.ProfilingAttributeInjector())

	handlerCalled := false
	r.POST("/api/v1/billing/payments", func(c *gin.Context) {
		handlerCalled = true
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/billing/payments", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, handlerCalled)
}

func TestProfilingMiddleware_PreservesChain(t *testing.T) {
	r := gin.New()
	order := []string{}

	r.Use(func(c *gin.Context) {
		c.Set("custom_key", "custom_value")
		order = append(order, "first")
		c.Next()
		order = append(order, "first_after")
	})
	r.Use(middleware.ProfilingWithConfig(middleware.DefaultProfilingConfig()))
	r.Use(func(c *gin.Context) {
		order = append(order, "third")
		c.Next()
		order = append(order, "third_after")
	})
	r.GET("/api/v1/billing/invoices", func(c *gin.Context) {
		value, exists := c.Get("custom_key")
		assert.True(t, exists)
		assert.Equal(t, "custom_value", value)
		order = append(order, "handler")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/billing/invoices", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"first", "third", "handler", "third_after", "first_after"}, order)
}
