package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newBufferedLogger() (*zap.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(&buf), zapcore.DebugLevel)
	return zap.New(core), &buf
}

func TestWithContext(t *testing.T) {
	base, err := NewForEnvironment("development")
	require.NoError(t, err)

	ctx := WithContext(context.Background(), base)
	assert.NotNil(t, FromContext(ctx))
}

func TestFromContext_Fallbacks(t *testing.T) {
	t.Run("missing logger yields a nop", func(t *testing.T) {
		log := FromContext(context.Background())
		require.NotNil(t, log)
		assert.NotPanics(t, func() {
			log.Info("payment received")
			log.With(zap.String("building_id", "b-1")).Error("invoice lookup failed")
		})
	})

	t.Run("wrong value type yields a nop", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), LoggerKey, "not a logger")
		log := FromContext(ctx)
		require.NotNil(t, log)
		assert.NotPanics(t, func() { log.Info("still fine") })
	})
}

func TestContextEnrichment(t *testing.T) {
	base, err := NewForEnvironment("development")
	require.NoError(t, err)

	t.Run("ids chain through the context", func(t *testing.T) {
		ctx := context.Background()
		ctx, log := WithRequestID(ctx, base, "req-1")
		ctx, log = WithBuildingID(ctx, log, "building-1")
		ctx, log = WithUserID(ctx, log, "user-1")

		assert.Equal(t, "req-1", GetRequestID(ctx))
		assert.Equal(t, "building-1", GetBuildingID(ctx))
		assert.Equal(t, "user-1", GetUserID(ctx))
		assert.NotNil(t, log)

		// Getters on a bare context come back empty.
		assert.Empty(t, GetRequestID(context.Background()))
		assert.Empty(t, GetBuildingID(context.Background()))
		assert.Empty(t, GetUserID(context.Background()))
	})

	t.Run("later request id overrides", func(t *testing.T) {
		ctx, _ := WithRequestID(context.Background(), base, "first-id")
		ctx, _ = WithRequestID(ctx, base, "second-id")
		assert.Equal(t, "second-id", GetRequestID(ctx))
	})

	t.Run("enriched logger replaces the one in context", func(t *testing.T) {
		ctx, enriched := WithRequestID(context.Background(), base, "req-test")
		assert.NotNil(t, FromContext(ctx))
		assert.NotEqual(t, base, enriched)
	})
}

func TestContextKeysAreDistinct(t *testing.T) {
	keys := []interface{}{LoggerKey, RequestIDKey, BuildingIDKey, UserIDKey}
	for i := range keys {
		for j := i + 1; j < len(keys); j++ {
			assert.NotEqual(t, keys[i], keys[j])
		}
	}
}

func TestTraceCorrelation(t *testing.T) {
	t.Run("no span yields empty ids and an untouched logger", func(t *testing.T) {
		ctx := context.Background()
		assert.Empty(t, GetTraceID(ctx))
		assert.Empty(t, GetSpanID(ctx))

		base := zap.NewNop()
		assert.Equal(t, base, WithTraceContext(ctx, base))
	})

	t.Run("invalid span context is treated as no span", func(t *testing.T) {
		tracer := noop.NewTracerProvider().Tracer("test")
		ctx, span := tracer.Start(context.Background(), "noop-span")
		defer span.End()

		require.False(t, trace.SpanFromContext(ctx).SpanContext().IsValid())
		assert.Empty(t, GetTraceID(ctx))
		assert.Empty(t, GetSpanID(ctx))

		base := zap.NewNop()
		assert.Equal(t, base, WithTraceContext(ctx, base))
	})
}

func TestL(t *testing.T) {
	t.Run("bare context", func(t *testing.T) {
		cl := L(context.Background())
		require.NotNil(t, cl)
		assert.NotNil(t, cl.ctx)
		assert.NotNil(t, cl.logger)
	})

	t.Run("picks up the context logger", func(t *testing.T) {
		base, err := NewForEnvironment("development")
		require.NoError(t, err)

		cl := L(WithContext(context.Background(), base))
		require.NotNil(t, cl)
		assert.NotNil(t, cl.logger)
	})
}

func TestWithLogger(t *testing.T) {
	base, err := NewForEnvironment("development")
	require.NoError(t, err)

	cl := WithLogger(context.Background(), base)
	require.NotNil(t, cl)
	assert.Equal(t, base, cl.logger)
}

func TestContextLogger_With(t *testing.T) {
	base, _ := newBufferedLogger()
	ctx := context.Background()

	child := WithLogger(ctx, base).With(zap.String("unit_label", "4-B"))
	require.NotNil(t, child)
	assert.Equal(t, ctx, child.ctx)
	assert.NotEqual(t, base, child.logger)

	// Chained With calls keep working.
	assert.NotPanics(t, func() {
		child.With(zap.String("period", "2024-01")).Info("invoice generated")
	})
}

func TestContextLogger_Accessors(t *testing.T) {
	cl := WithLogger(context.Background(), zap.NewNop())

	assert.NotPanics(t, func() {
		cl.Debug("debug message")
		cl.Info("info message")
		cl.Warn("warn message")
		cl.Error("error message")
		cl.Zap().Info("raw zap")
		cl.Sugar().Infof("sugared %s", "message")
	})
}

func TestContextLogger_NilLogger(t *testing.T) {
	cl := &ContextLogger{ctx: context.Background(), logger: nil}
	assert.NotPanics(t, func() { cl.Info("tolerated") })
}

func TestContextLogger_EnrichesWithContextFields(t *testing.T) {
	base, buf := newBufferedLogger()

	ctx := context.Background()
	ctx, _ = WithRequestID(ctx, base, "req-123")
	ctx, _ = WithBuildingID(ctx, base, "building-456")
	ctx, _ = WithUserID(ctx, base, "user-789")
	ctx = WithContext(ctx, base)

	L(ctx).Info("payment approved", zap.String("payment_method", "TRANSFER"))

	output := buf.String()
	assert.Contains(t, output, `"request_id":"req-123"`)
	assert.Contains(t, output, `"building_id":"building-456"`)
	assert.Contains(t, output, `"user_id":"user-789"`)
	assert.Contains(t, output, `"payment_method":"TRANSFER"`)
	assert.Contains(t, output, `"msg":"payment approved"`)
}

func TestContextLogger_SkipsEmptyContextFields(t *testing.T) {
	base, buf := newBufferedLogger()

	WithLogger(context.Background(), base).Info("bare entry")

	output := buf.String()
	assert.Contains(t, output, `"msg":"bare entry"`)
	assert.NotContains(t, output, `"request_id":""`)
	assert.NotContains(t, output, `"building_id":""`)
	assert.NotContains(t, output, `"user_id":""`)
}
