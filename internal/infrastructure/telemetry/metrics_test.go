package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/condominio/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap/zaptest"
)

func newDisabledMeterProvider(t *testing.T) *telemetry.MeterProvider {
	t.Helper()

	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		ExportInterval:    60 * time.Second,
		ServiceName:       "condominio-backend",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return mp
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	mp := newDisabledMeterProvider(t)

	assert.False(t, mp.IsEnabled())
	assert.Equal(t, "condominio-backend", mp.GetConfig().ServiceName)

	// A no-op meter still hands out working instruments.
	require.NotNil(t, mp.Meter("billing"))

	assert.NoError(t, mp.ForceFlush(ctx))
	assert.NoError(t, mp.Shutdown(ctx))

	// Shutdown of a disabled provider ignores context state.
	cancelledCtx, cancel := context.WithCancel(ctx)
	cancel()
	assert.NoError(t, mp.Shutdown(cancelledCtx))
}

func TestNewMeterProvider_Enabled(t *testing.T) {
	// Needs a reachable OTLP collector, run locally with `make otel-up`.
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           true,
		CollectorEndpoint: "localhost:14317",
		ExportInterval:    1 * time.Second,
		ServiceName:       "condominio-backend",
		Insecure:          true,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.True(t, mp.IsEnabled())
	require.NotNil(t, mp.Meter("billing"))
	assert.NoError(t, mp.ForceFlush(ctx))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestCounter(t *testing.T) {
	ctx := context.Background()
	meter := newDisabledMeterProvider(t).Meter("billing")

	counter, err := telemetry.NewCounter(meter, "payments_submitted_total", "Payments submitted", "{payment}")
	require.NoError(t, err)

	counter.Add(ctx, 5, attribute.String("payment_method", "TRANSFER"))
	counter.Add(ctx, 10, attribute.String("payment_method", "CASH"))
	counter.Inc(ctx)
	counter.Inc(ctx, attribute.String("payment_status", "APPROVED"))
}

func TestHistogram(t *testing.T) {
	ctx := context.Background()
	meter := newDisabledMeterProvider(t).Meter("billing")

	t.Run("records raw values", func(t *testing.T) {
		histogram, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Description: "HTTP request duration",
			Unit:        "s",
			Boundaries:  telemetry.HTTPDurationBuckets,
		})
		require.NoError(t, err)

		histogram.Record(ctx, 0.005, telemetry.AttrHTTPMethod.String("GET"))
		histogram.Record(ctx, 0.1, attribute.String("route", "/api/v1/billing/invoices"))
		histogram.Record(ctx, 2.5, telemetry.AttrHTTPMethod.String("DELETE"))
	})

	t.Run("records durations", func(t *testing.T) {
		histogram, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Description: "Database query duration",
			Unit:        "s",
			Boundaries:  telemetry.DBDurationBuckets,
		})
		require.NoError(t, err)

		histogram.RecordDuration(ctx, 5*time.Millisecond)
		histogram.RecordDuration(ctx, 100*time.Millisecond, telemetry.AttrDBOperation.String("SELECT"))
		histogram.RecordDuration(ctx, 1*time.Second, telemetry.AttrDBOperation.String("INSERT"))
	})

	t.Run("custom boundaries", func(t *testing.T) {
		histogram, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
			Name:        "debt_collection_duration_seconds",
			Description: "Debt report generation duration",
			Unit:        "s",
			Boundaries:  []float64{0.1, 0.5, 1.0, 5.0, 10.0},
		})
		require.NoError(t, err)
		histogram.Record(ctx, 0.25)
	})

	t.Run("sdk default boundaries", func(t *testing.T) {
		histogram, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
			Name:        "idempotency_lookup_duration_seconds",
			Description: "Idempotency key lookup duration",
			Unit:        "s",
		})
		require.NoError(t, err)
		histogram.Record(ctx, 1.5)
	})
}

func TestGauge(t *testing.T) {
	ctx := context.Background()
	meter := newDisabledMeterProvider(t).Meter("billing")

	gauge, err := telemetry.NewGauge(meter, "active_connections", "Number of active connections", "{connection}")
	require.NoError(t, err)
	gauge.Record(ctx, 10)
	gauge.Record(ctx, 15, attribute.String("pool", "db"))
	gauge.Record(ctx, 5, attribute.String("pool", "redis"))

	floatGauge, err := telemetry.NewFloatGauge(meter, "cpu_usage_percent", "CPU usage percentage", "%")
	require.NoError(t, err)
	floatGauge.Record(ctx, 45.5)
	floatGauge.Record(ctx, 78.2, attribute.String("core", "0"))
}

func TestCommonAttributes(t *testing.T) {
	assert.Equal(t, "building_id", string(telemetry.AttrBuildingID))
	assert.Equal(t, "user_id", string(telemetry.AttrUserID))
	assert.Equal(t, "http.method", string(telemetry.AttrHTTPMethod))
	assert.Equal(t, "http.status_code", string(telemetry.AttrHTTPStatusCode))
	assert.Equal(t, "http.route", string(telemetry.AttrHTTPRoute))
	assert.Equal(t, "db.operation", string(telemetry.AttrDBOperation))
	assert.Equal(t, "db.table", string(telemetry.AttrDBTable))
	assert.Equal(t, "db.pool.state", string(telemetry.AttrDBState))
	assert.Equal(t, "unit_id", string(telemetry.AttrUnitID))
	assert.Equal(t, "payment_method", string(telemetry.AttrPaymentMethod))
	assert.Equal(t, "payment_status", string(telemetry.AttrPaymentStatus))
	assert.Equal(t, "invoice_period", string(telemetry.AttrInvoicePeriod))
	assert.Equal(t, "invoice_status", string(telemetry.AttrInvoiceStatus))
}

func TestDefaultBuckets(t *testing.T) {
	assert.Equal(t, []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, telemetry.HTTPDurationBuckets)
	assert.Equal(t, []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}, telemetry.DBDurationBuckets)
	assert.Equal(t, []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1}, telemetry.SmallDurationBuckets)
}
