// Package telemetry provides OpenTelemetry integration for distributed tracing.
package telemetry

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled          bool          // Enable database tracing
	LogFullSQL       bool          // Include full SQL in spans; amounts and names leak, dev only
	SlowQueryThresh  time.Duration // Queries slower than this get a span event (default: 200ms)
	DBSystem         string        // Database system name (default: "postgresql")
	WithoutVariables bool          // Exclude bind variables from the recorded SQL
}

// DefaultDBTracingConfig returns the secure defaults: tracing off, SQL redacted.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		Enabled:          false,
		LogFullSQL:       false,
		SlowQueryThresh:  200 * time.Millisecond,
		DBSystem:         "postgresql",
		WithoutVariables: true,
	}
}

// DBTracingPlugin wires otelgorm into GORM and layers slow query detection on top.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a database tracing plugin.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	return &DBTracingPlugin{config: cfg, logger: logger}
}

// RegisterOtelGorm installs otelgorm plus the timing callbacks on db. A no-op
// when tracing is disabled.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	// Timing wraps every operation: the before callbacks stamp a start time,
	// the after callbacks annotate the otelgorm span.
	cb := NewDBTracingCallback(p.config.SlowQueryThresh)
	if err := registerTimingCallbacks(db, "otel_timing:before_", true, cb.BeforeCallback); err != nil {
		return err
	}
	if err := registerTimingCallbacks(db, "otel_slow_query:", false, cb.AfterCallback); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)
	return nil
}

// registerTimingCallbacks hooks fn around every GORM operation, either before
// or after the builtin callback.
func registerTimingCallbacks(db *gorm.DB, prefix string, before bool, fn func(*gorm.DB)) error {
	cb := db.Callback()
	registrations := []func() error{
		func() error {
			if before {
				return cb.Create().Before("gorm:create").Register(prefix+"create", fn)
			}
			return cb.Create().After("gorm:create").Register(prefix+"create", fn)
		},
		func() error {
			if before {
				return cb.Query().Before("gorm:query").Register(prefix+"query", fn)
			}
			return cb.Query().After("gorm:query").Register(prefix+"query", fn)
		},
		func() error {
			if before {
				return cb.Update().Before("gorm:update").Register(prefix+"update", fn)
			}
			return cb.Update().After("gorm:update").Register(prefix+"update", fn)
		},
		func() error {
			if before {
				return cb.Delete().Before("gorm:delete").Register(prefix+"delete", fn)
			}
			return cb.Delete().After("gorm:delete").Register(prefix+"delete", fn)
		},
		func() error {
			if before {
				return cb.Row().Before("gorm:row").Register(prefix+"row", fn)
			}
			return cb.Row().After("gorm:row").Register(prefix+"row", fn)
		},
		func() error {
			if before {
				return cb.Raw().Before("gorm:raw").Register(prefix+"raw", fn)
			}
			return cb.Raw().After("gorm:raw").Register(prefix+"raw", fn)
		},
	}
	for _, register := range registrations {
		if err := register(); err != nil {
			return err
		}
	}
	return nil
}

type contextKey string

const queryStartTimeKey contextKey = "otel_query_start_time"

// WithQueryStartTime stamps the context with the query start time so the
// after callback can compute elapsed time.
func WithQueryStartTime(ctx context.Context) context.Context {
	return context.WithValue(ctx, queryStartTimeKey, time.Now())
}

// DBTracingCallback annotates the active span with row counts, table names,
// errors and slow query events.
type DBTracingCallback struct {
	slowQueryThresh time.Duration
}

// NewDBTracingCallback creates a callback pair with the given slow threshold.
func NewDBTracingCallback(slowQueryThresh time.Duration) *DBTracingCallback {
	return &DBTracingCallback{slowQueryThresh: slowQueryThresh}
}

// BeforeCallback records the query start time in the statement context.
func (c *DBTracingCallback) BeforeCallback(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = WithQueryStartTime(db.Statement.Context)
	}
}

// AfterCallback enriches the span otelgorm opened for this statement.
func (c *DBTracingCallback) AfterCallback(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}

	// A missing invoice or payment is a normal lookup result, not a span error.
	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if startTime, ok := ctx.Value(queryStartTimeKey).(time.Time); ok {
		elapsed := time.Since(startTime)
		if elapsed > c.slowQueryThresh {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
			span.AddEvent("slow_query_warning", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", c.slowQueryThresh.Milliseconds()),
			))
		}
	}
}

// RegisterCallbacks installs the before/after pair on db, for use without the
// full DBTracingPlugin.
func (c *DBTracingCallback) RegisterCallbacks(db *gorm.DB) error {
	if err := registerTimingCallbacks(db, "otel_timing:before_", true, c.BeforeCallback); err != nil {
		return err
	}
	return registerTimingCallbacks(db, "otel_timing:after_", false, c.AfterCallback)
}
