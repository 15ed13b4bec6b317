package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func setupTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)

	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
	})

	return mp, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetricByName(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func requestTotal(t *testing.T, reader *sdkmetric.ManualReader) metricdata.Sum[int64] {
	t.Helper()

	rm := collectMetrics(t, reader)
	metric := findMetricByName(rm, "http_server_request_total")
	require.NotNil(t, metric, "http_server_request_total metric not found")
	sum, ok := metric.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected Sum data for counter")
	return sum
}

func TestHTTPMetrics(t *testing.T) {
	t.Run("disabled config passes requests through", func(t *testing.T) {
		router := gin.New()
		router.Use(HTTPMetrics(HTTPMetricsConfig{Enabled: false}))
		router.GET("/api/v1/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("nil meter provider does not panic", func(t *testing.T) {
		router := gin.New()
		router.Use(HTTPMetrics(HTTPMetricsConfig{Enabled: true, MeterProvider: nil}))
		router.GET("/api/v1/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestHTTPMetricsWithMeter(t *testing.T) {
	t.Run("counts requests per route pattern", func(t *testing.T) {
		mp, reader := setupTestMeter(t)
		router := gin.New()
		router.Use(HTTPMetricsWithMeter(mp.Meter("http.server"), true))
		router.GET("/api/v1/billing/invoices/:id", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
		})

		// Different invoice IDs collapse onto one data point, keyed by
		// the route pattern rather than the concrete path.
		for _, id := range []string{"1", "2", "abc"} {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/billing/invoices/"+id, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		}

		sum := requestTotal(t, reader)
		require.Len(t, sum.DataPoints, 1)
		assert.Equal(t, int64(3), sum.DataPoints[0].Value)

		route, found := "", false
		for _, attr := range sum.DataPoints[0].Attributes.ToSlice() {
			if string(attr.Key) == "http.route" {
				route, found = attr.Value.AsString(), true
			}
		}
		require.True(t, found, "http.route attribute not found")
		assert.Equal(t, "/api/v1/billing/invoices/:id", route)
	})

	t.Run("splits data points by status code", func(t *testing.T) {
		mp, reader := setupTestMeter(t)
		router := gin.New()
		router.Use(HTTPMetricsWithMeter(mp.Meter("http.server"), true))
		router.GET("/api/v1/billing/payments", func(c *gin.Context) { c.Status(http.StatusOK) })
		router.GET("/api/v1/billing/payments/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

		for _, path := range []string{"/api/v1/billing/payments", "/api/v1/billing/payments", "/api/v1/billing/payments/missing"} {
			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
		}

		sum := requestTotal(t, reader)
		var total int64
		for _, dp := range sum.DataPoints {
			total += dp.Value
		}
		assert.Equal(t, int64(3), total)
		assert.Len(t, sum.DataPoints, 2)
	})

	t.Run("records duration and size histograms", func(t *testing.T) {
		mp, reader := setupTestMeter(t)
		router := gin.New()
		router.Use(HTTPMetricsWithMeter(mp.Meter("http.server"), true))
		router.POST("/api/v1/billing/payments", func(c *gin.Context) {
			c.JSON(http.StatusCreated, gin.H{"status": "PENDING"})
		})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/payments",
			strings.NewReader(`{"amount":"150.00"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(httptest.NewRecorder(), req)

		rm := collectMetrics(t, reader)
		for _, name := range []string{
			"http_server_request_duration_seconds",
			"http_server_request_size_bytes",
			"http_server_response_size_bytes",
		} {
			metric := findMetricByName(rm, name)
			require.NotNil(t, metric, "%s metric not found", name)
			hist, ok := metric.Data.(metricdata.Histogram[float64])
			require.True(t, ok, "expected Histogram data for %s", name)
			require.Len(t, hist.DataPoints, 1)
		}
	})

	t.Run("active requests settle back to zero", func(t *testing.T) {
		mp, reader := setupTestMeter(t)
		router := gin.New()
		router.Use(HTTPMetricsWithMeter(mp.Meter("http.server"), true))
		router.GET("/api/v1/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))

		rm := collectMetrics(t, reader)
		metric := findMetricByName(rm, "http_server_active_requests")
		require.NotNil(t, metric, "http_server_active_requests metric not found")
		sum, ok := metric.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		if len(sum.DataPoints) > 0 {
			assert.Equal(t, int64(0), sum.DataPoints[0].Value)
		}
	})

	t.Run("tags data points with the building from the jwt", func(t *testing.T) {
		mp, reader := setupTestMeter(t)
		router := gin.New()
		router.Use(func(c *gin.Context) {
			c.Set(JWTBuildingIDKey, "building-123")
			c.Next()
		})
		router.Use(HTTPMetricsWithMeter(mp.Meter("http.server"), true))
		router.GET("/api/v1/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))

		sum := requestTotal(t, reader)
		require.Len(t, sum.DataPoints, 1)
		found := false
		for _, attr := range sum.DataPoints[0].Attributes.ToSlice() {
			if string(attr.Key) == "building_id" {
				assert.Equal(t, "building-123", attr.Value.AsString())
				found = true
			}
		}
		assert.True(t, found, "building_id attribute not found in metrics")
	})

	t.Run("disabled flag records nothing", func(t *testing.T) {
		mp, _ := setupTestMeter(t)
		router := gin.New()
		router.Use(HTTPMetricsWithMeter(mp.Meter("http.server"), false))
		router.GET("/api/v1/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestGetRoutePattern(t *testing.T) {
	t.Run("matched route returns the pattern", func(t *testing.T) {
		var got string
		router := gin.New()
		router.GET("/api/v1/directory/units/:id", func(c *gin.Context) {
			got = getRoutePattern(c)
			c.Status(http.StatusOK)
		})

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/directory/units/123", nil))
		assert.Equal(t, "/api/v1/directory/units/:id", got)
	})

	t.Run("unmatched route collapses to unknown", func(t *testing.T) {
		var got string
		router := gin.New()
		router.Use(func(c *gin.Context) {
			got = getRoutePattern(c)
			c.AbortWithStatus(http.StatusNotFound)
		})

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nonexistent", nil))
		assert.Equal(t, "unknown", got)
	})
}

func TestGetRequestSize(t *testing.T) {
	cases := []struct {
		name          string
		contentLength int64
		want          int64
	}{
		{"positive length", 100, 100},
		{"zero length", 0, 0},
		{"unknown length", -1, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got int64
			router := gin.New()
			router.POST("/api/v1/billing/payments", func(c *gin.Context) {
				got = getRequestSize(c)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/payments", nil)
			req.ContentLength = tc.contentLength
			router.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetBuildingIDFromContext(t *testing.T) {
	cases := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"string value", "building-123", "building-123"},
		{"empty string", "", ""},
		{"missing", nil, ""},
		{"non-string", 42, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			router := gin.New()
			if tc.value != nil {
				router.Use(func(c *gin.Context) {
					c.Set(JWTBuildingIDKey, tc.value)
					c.Next()
				})
			}
			router.GET("/api/v1/ping", func(c *gin.Context) {
				got = getBuildingIDFromContext(c)
				c.Status(http.StatusOK)
			})

			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHTTPMetricsStatusGroup(t *testing.T) {
	cases := []struct {
		status int
		want   string
	}{
		{200, "2xx"}, {201, "2xx"},
		{301, "3xx"},
		{400, "4xx"}, {404, "4xx"}, {499, "4xx"},
		{500, "5xx"}, {503, "5xx"}, {600, "5xx"},
		{100, "other"}, {0, "other"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPMetricsStatusGroup(tc.status), "status %d", tc.status)
	}
}

func TestParseStatusCode(t *testing.T) {
	assert.Equal(t, 200, ParseStatusCode("200"))
	assert.Equal(t, 404, ParseStatusCode("404"))
	assert.Equal(t, 0, ParseStatusCode("invalid"))
	assert.Equal(t, 0, ParseStatusCode(""))
	assert.Equal(t, 0, ParseStatusCode("12.34"))
}

func TestHTTPMetricsResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	rw := &HTTPMetricsResponseWriter{ResponseWriter: ctx.Writer}

	n, err := rw.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = rw.Write([]byte(" world"))
	assert.NoError(t, err)
	assert.Equal(t, 11, rw.BytesWritten())
}

func TestDefaultHTTPMetricsConfig(t *testing.T) {
	cfg := DefaultHTTPMetricsConfig()

	assert.Equal(t, "condominio-backend", cfg.ServiceName)
	assert.True(t, cfg.Enabled)
	assert.Nil(t, cfg.MeterProvider)
}
