package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// serveSwagger wires SwaggerProtection in front of a stub docs handler and
// issues one GET /swagger/index.html from the given address.
func serveSwagger(cfg SwaggerConfig, authMW gin.HandlerFunc, remoteAddr string) *httptest.ResponseRecorder {
	router := gin.New()
	router.GET("/swagger/*any", SwaggerProtection(cfg, authMW), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "swagger"})
	})

	req := httptest.NewRequest("GET", "/swagger/index.html", nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSwaggerProtection(t *testing.T) {
	t.Run("disabled docs answer 404", func(t *testing.T) {
		w := serveSwagger(SwaggerConfig{Enabled: false}, nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "not_found")
	})

	t.Run("enabled without restrictions serves", func(t *testing.T) {
		w := serveSwagger(SwaggerConfig{Enabled: true}, nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("ip allowlist", func(t *testing.T) {
		cfg := SwaggerConfig{Enabled: true, AllowedIPs: []string{"127.0.0.1"}}
		assert.Equal(t, http.StatusOK, serveSwagger(cfg, nil, "127.0.0.1:12345").Code)

		cfg.AllowedIPs = []string{"10.0.0.1"}
		w := serveSwagger(cfg, nil, "192.168.1.1:12345")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "forbidden")
	})

	t.Run("cidr allowlist", func(t *testing.T) {
		cfg := SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8"}}
		assert.Equal(t, http.StatusOK, serveSwagger(cfg, nil, "10.50.100.200:12345").Code)
		assert.Equal(t, http.StatusForbidden, serveSwagger(cfg, nil, "192.168.1.1:12345").Code)
	})

	t.Run("auth requirement delegates to the jwt middleware", func(t *testing.T) {
		deny := func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		}
		allow := func(c *gin.Context) {
			c.Set("user_id", "admin-lobby")
			c.Next()
		}
		cfg := SwaggerConfig{Enabled: true, RequireAuth: true}

		assert.Equal(t, http.StatusUnauthorized, serveSwagger(cfg, deny, "").Code)
		assert.Equal(t, http.StatusOK, serveSwagger(cfg, allow, "").Code)
	})

	t.Run("ip check runs before auth", func(t *testing.T) {
		allow := func(c *gin.Context) { c.Next() }
		cfg := SwaggerConfig{Enabled: true, RequireAuth: true, AllowedIPs: []string{"127.0.0.1"}}

		assert.Equal(t, http.StatusOK, serveSwagger(cfg, allow, "127.0.0.1:12345").Code)
		assert.Equal(t, http.StatusForbidden, serveSwagger(cfg, allow, "192.168.1.1:12345").Code)
	})
}

func TestIPAllowlist(t *testing.T) {
	tests := []struct {
		name    string
		ip      string
		allowed []string
		want    bool
	}{
		{name: "exact IP match", ip: "192.168.1.1", allowed: []string{"192.168.1.1"}, want: true},
		{name: "no match", ip: "192.168.1.2", allowed: []string{"192.168.1.1"}, want: false},
		{name: "CIDR match", ip: "10.0.0.5", allowed: []string{"10.0.0.0/8"}, want: true},
		{name: "CIDR no match", ip: "11.0.0.5", allowed: []string{"10.0.0.0/8"}, want: false},
		{name: "mixed entries", ip: "10.0.0.5", allowed: []string{"192.168.1.1", "10.0.0.0/8"}, want: true},
		{name: "invalid entries skipped", ip: "10.0.0.5", allowed: []string{"not-an-ip", "300.0.0.0/8"}, want: false},
		{name: "localhost IPv4", ip: "127.0.0.1", allowed: []string{"127.0.0.1"}, want: true},
		{name: "IPv6 localhost", ip: "::1", allowed: []string{"::1"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := parseAllowlist(tt.allowed)
			assert.Equal(t, tt.want, list.contains(net.ParseIP(tt.ip)))
		})
	}
}
