package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newTestMeter(t *testing.T, name string) (metric.Meter, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	return provider.Meter(name), reader
}

func findMetric(rm metricdata.ResourceMetrics, name string) bool {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return true
			}
		}
	}
	return false
}

func newMockGormDB(t *testing.T) *gorm.DB {
	t.Helper()

	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB
}

func TestDefaultDBMetricsConfig(t *testing.T) {
	cfg := DefaultDBMetricsConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThreshold)
	assert.Equal(t, 15*time.Second, cfg.PoolStatsInterval)
}

func TestNewDBMetrics(t *testing.T) {
	meter, _ := newTestMeter(t, "test")

	t.Run("registers every instrument", func(t *testing.T) {
		metrics, err := NewDBMetrics(meter, DefaultDBMetricsConfig(), zap.NewNop())
		require.NoError(t, err)

		assert.NotNil(t, metrics.poolConnections)
		assert.NotNil(t, metrics.poolConnectionsMax)
		assert.NotNil(t, metrics.queryTotal)
		assert.NotNil(t, metrics.queryDuration)
		assert.NotNil(t, metrics.slowQueryTotal)
	})

	t.Run("fills in zero config values", func(t *testing.T) {
		metrics, err := NewDBMetrics(meter, DBMetricsConfig{}, zap.NewNop())
		require.NoError(t, err)

		assert.Equal(t, 200*time.Millisecond, metrics.config.SlowQueryThreshold)
		assert.Equal(t, 15*time.Second, metrics.config.PoolStatsInterval)
	})

	t.Run("nil logger falls back to nop", func(t *testing.T) {
		metrics, err := NewDBMetrics(meter, DefaultDBMetricsConfig(), nil)
		require.NoError(t, err)
		require.NotNil(t, metrics.logger)
	})
}

func TestDBMetrics_RecordQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("records count and duration for a query", func(t *testing.T) {
		meter, reader := newTestMeter(t, "test_record")
		metrics, err := NewDBMetrics(meter, DBMetricsConfig{
			Enabled:            true,
			SlowQueryThreshold: 200 * time.Millisecond,
		}, zap.NewNop())
		require.NoError(t, err)

		metrics.RecordQuery(ctx, "SELECT", "invoices", 50*time.Millisecond, nil)

		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(ctx, &rm))
		assert.True(t, findMetric(rm, "db_query_total"))
		assert.True(t, findMetric(rm, "db_query_duration_seconds"))
	})

	t.Run("flags queries above the slow threshold", func(t *testing.T) {
		meter, reader := newTestMeter(t, "test_slow")
		metrics, err := NewDBMetrics(meter, DBMetricsConfig{
			Enabled:            true,
			SlowQueryThreshold: 100 * time.Millisecond,
		}, zap.NewNop())
		require.NoError(t, err)

		metrics.RecordQuery(ctx, "SELECT", "payments", 250*time.Millisecond, nil)

		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(ctx, &rm))
		assert.True(t, findMetric(rm, "db_slow_query_total"))
	})

	t.Run("fast queries leave the slow counter at zero", func(t *testing.T) {
		meter, reader := newTestMeter(t, "test_fast")
		metrics, err := NewDBMetrics(meter, DBMetricsConfig{
			Enabled:            true,
			SlowQueryThreshold: 200 * time.Millisecond,
		}, zap.NewNop())
		require.NoError(t, err)

		metrics.RecordQuery(ctx, "SELECT", "invoices", 50*time.Millisecond, nil)

		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(ctx, &rm))
		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				if m.Name == "db_slow_query_total" {
					sum := m.Data.(metricdata.Sum[int64])
					for _, dp := range sum.DataPoints {
						assert.Equal(t, int64(0), dp.Value)
					}
				}
			}
		}
	})

	t.Run("normalizes odd operation and table names", func(t *testing.T) {
		meter, reader := newTestMeter(t, "test_normalize")
		metrics, err := NewDBMetrics(meter, DBMetricsConfig{
			Enabled:            true,
			SlowQueryThreshold: 50 * time.Millisecond,
		}, zap.NewNop())
		require.NoError(t, err)

		// Mixed-case operations, an empty operation, and a slow query
		// against an empty table name must all record cleanly.
		metrics.RecordQuery(ctx, "select", "invoices", 10*time.Millisecond, nil)
		metrics.RecordQuery(ctx, "Insert", "payment_allocations", 10*time.Millisecond, nil)
		metrics.RecordQuery(ctx, "", "units", 10*time.Millisecond, nil)
		metrics.RecordQuery(ctx, "SELECT", "", 100*time.Millisecond, nil)

		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(ctx, &rm))
		assert.True(t, findMetric(rm, "db_query_total"))
		assert.True(t, findMetric(rm, "db_slow_query_total"))
	})
}

func TestDBMetrics_PoolStats(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes pool gauges on the collection interval", func(t *testing.T) {
		meter, reader := newTestMeter(t, "test_pool")

		mockDB, _, err := sqlmock.New()
		require.NoError(t, err)
		defer mockDB.Close()

		metrics, err := NewDBMetrics(meter, DBMetricsConfig{
			Enabled:           true,
			PoolStatsInterval: 50 * time.Millisecond,
		}, zap.NewNop())
		require.NoError(t, err)
		metrics.SetSQLDB(mockDB)

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		metrics.StartPoolStatsCollection(ctx)
		time.Sleep(100 * time.Millisecond)
		metrics.Stop()

		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(context.Background(), &rm))
		assert.True(t, findMetric(rm, "db_pool_connections_max"))
		assert.True(t, findMetric(rm, "db_pool_connections"))
	})

	t.Run("skips collection when no sql pool is attached", func(t *testing.T) {
		meter, _ := newTestMeter(t, "test_no_db")
		metrics, err := NewDBMetrics(meter, DefaultDBMetricsConfig(), zap.NewNop())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		metrics.StartPoolStatsCollection(ctx)
		time.Sleep(50 * time.Millisecond)
		metrics.Stop()
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		meter, _ := newTestMeter(t, "test_ctx_cancel")

		mockDB, _, err := sqlmock.New()
		require.NoError(t, err)
		defer mockDB.Close()

		metrics, err := NewDBMetrics(meter, DBMetricsConfig{
			Enabled:           true,
			PoolStatsInterval: 1 * time.Second,
		}, zap.NewNop())
		require.NoError(t, err)
		metrics.SetSQLDB(mockDB)

		ctx, cancel := context.WithCancel(ctx)
		metrics.StartPoolStatsCollection(ctx)
		cancel()
		metrics.Stop()
	})
}

func TestDBMetrics_Stop(t *testing.T) {
	meter, _ := newTestMeter(t, "test_stop")

	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	metrics, err := NewDBMetrics(meter, DBMetricsConfig{
		Enabled:           true,
		PoolStatsInterval: 100 * time.Millisecond,
	}, zap.NewNop())
	require.NoError(t, err)
	metrics.SetSQLDB(mockDB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	metrics.StartPoolStatsCollection(ctx)

	done := make(chan struct{})
	go func() {
		metrics.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() blocked for too long")
	}

	// Repeated stops must not panic.
	assert.NotPanics(t, func() { metrics.Stop() })
	assert.NotPanics(t, func() { metrics.Stop() })
}

func TestDBMetricsPlugin(t *testing.T) {
	meter, _ := newTestMeter(t, "test_plugin")
	metrics, err := NewDBMetrics(meter, DefaultDBMetricsConfig(), zap.NewNop())
	require.NoError(t, err)

	plugin := NewDBMetricsPlugin(metrics, zap.NewNop())
	assert.Equal(t, "db_metrics", plugin.Name())

	require.NoError(t, plugin.Initialize(newMockGormDB(t)))
}

func TestDetectOperationType(t *testing.T) {
	tests := []struct {
		sql      string
		expected string
	}{
		{"SELECT * FROM invoices", "SELECT"},
		{"  select id FROM invoices", "SELECT"},
		{"INSERT INTO payments (id) VALUES ($1)", "INSERT"},
		{"insert into payments values (1)", "INSERT"},
		{"UPDATE invoices SET status = 'PAID'", "UPDATE"},
		{"DELETE FROM payment_allocations WHERE payment_id = $1", "DELETE"},
		{"CREATE TABLE units", "OTHER"},
		{"TRUNCATE TABLE invoices", "OTHER"},
		{"", "OTHER"},
	}

	for _, tc := range tests {
		t.Run(tc.sql, func(t *testing.T) {
			assert.Equal(t, tc.expected, detectOperationType(tc.sql))
		})
	}
}

func TestRegisterDBMetrics(t *testing.T) {
	logger := zap.NewNop()

	t.Run("returns nil when disabled", func(t *testing.T) {
		metrics, err := RegisterDBMetrics(newMockGormDB(t), nil, DBMetricsConfig{Enabled: false}, logger)
		require.NoError(t, err)
		assert.Nil(t, metrics)
	})

	t.Run("returns nil without a meter provider", func(t *testing.T) {
		metrics, err := RegisterDBMetrics(newMockGormDB(t), nil, DBMetricsConfig{Enabled: true}, logger)
		require.NoError(t, err)
		assert.Nil(t, metrics)
	})

	t.Run("registers against a live provider", func(t *testing.T) {
		reader := sdkmetric.NewManualReader()
		sdkProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer sdkProvider.Shutdown(context.Background())

		mp := &MeterProvider{
			provider: sdkProvider,
			logger:   logger,
			config:   MetricsConfig{Enabled: true},
		}

		metrics, err := RegisterDBMetrics(newMockGormDB(t), mp, DBMetricsConfig{
			Enabled:            true,
			SlowQueryThreshold: 200 * time.Millisecond,
			PoolStatsInterval:  15 * time.Second,
		}, logger)
		require.NoError(t, err)
		require.NotNil(t, metrics)
	})
}

func TestDBMetrics_ConcurrentRecordQuery(t *testing.T) {
	ctx := context.Background()
	meter, reader := newTestMeter(t, "test_concurrent")
	metrics, err := NewDBMetrics(meter, DefaultDBMetricsConfig(), zap.NewNop())
	require.NoError(t, err)

	var wg sync.WaitGroup
	operations := []string{"SELECT", "INSERT", "UPDATE", "DELETE"}
	tables := []string{"invoices", "payments", "units", "buildings"}
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			metrics.RecordQuery(ctx, operations[i%4], tables[i%4], time.Duration(i)*time.Millisecond, nil)
		}(i)
	}
	wg.Wait()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	assert.True(t, findMetric(rm, "db_query_total"))
}
